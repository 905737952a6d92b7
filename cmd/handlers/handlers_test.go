package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zircuit-labs/mongo-status/cmd/logger"
)

func TestStatus(t *testing.T) {
	h := New(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()

	h.Status(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	body, _ := io.ReadAll(w.Body)
	if string(body) != `"Success!"` {
		t.Errorf("Expected body %q, got %q", `"Success!"`, body)
	}

	var decoded string
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Body is not a JSON string: %v", err)
	}
	if decoded != StatusMessage {
		t.Errorf("Expected %q, got %q", StatusMessage, decoded)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.DefaultConfig(), &buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("User-Agent", "kube-probe/1.30")
	w := httptest.NewRecorder()

	RequestLogger(log, next).ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected wrapped status to reach the client, got %d", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["path"] != "/healthcheck" {
		t.Errorf("Expected path=/healthcheck, got %v", entry["path"])
	}
	if entry["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("Expected status_code=418, got %v", entry["status_code"])
	}
	if entry["user_agent"] != "kube-probe/1.30" {
		t.Errorf("Expected user agent, got %v", entry["user_agent"])
	}
}

func TestRequestLoggerImplicitStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.DefaultConfig(), &buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	RequestLogger(log, next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"status_code":200`) {
		t.Errorf("Expected implicit 200 to be logged, got %s", buf.String())
	}
}
