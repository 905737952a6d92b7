package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zircuit-labs/mongo-status/cmd/database"
)

// StatusMessage is the JSON string served by the status routes
const StatusMessage = "Success!"

var statusBody, _ = json.Marshal(StatusMessage)

// Handlers holds the dependencies shared by request handlers
type Handlers struct {
	DB database.Handle
}

// New creates handlers bound to an established database handle
func New(db database.Handle) *Handlers {
	return &Handlers{DB: db}
}

// Status responds with the JSON string "Success!".
// It is served on both / and /healthcheck and never fails.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(statusBody)
}
