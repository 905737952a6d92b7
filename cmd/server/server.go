package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zircuit-labs/mongo-status/cmd/config"
	"github.com/zircuit-labs/mongo-status/cmd/database"
	"github.com/zircuit-labs/mongo-status/cmd/handlers"
	"github.com/zircuit-labs/mongo-status/cmd/logger"
	"github.com/zircuit-labs/mongo-status/cmd/metrics"
	"github.com/zircuit-labs/mongo-status/cmd/ratelimit"
)

// State is the bootstrap state of the server
type State int32

const (
	StateConnecting State = iota
	StateServing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateServing:
		return "serving"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Server connects to the database and, only once that succeeded, binds
// the HTTP listener.
type Server struct {
	cfg       *config.Config
	connector *database.Connector
	metrics   metrics.Client
	log       *logger.Logger

	state atomic.Int32
	ready chan struct{}

	mu   sync.RWMutex
	addr net.Addr
}

// New creates a server in the Connecting state
func New(cfg *config.Config, connector *database.Connector, metricsClient metrics.Client, log *logger.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		connector: connector,
		metrics:   metricsClient,
		log:       log,
		ready:     make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

// State returns the current bootstrap state
func (s *Server) State() State {
	return State(s.state.Load())
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or nil before Serving
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Run performs the startup sequence and serves until ctx is cancelled.
// A connection or listen failure moves the server to Terminated and is
// returned; the caller is expected to exit.
func (s *Server) Run(ctx context.Context) error {
	s.log.LogConnect(s.cfg.Database.URL)

	start := time.Now()
	msg, err := s.connector.Connect(ctx, s.cfg.Database.URL)
	s.metrics.ObserveConnect(time.Since(start), err)
	if err != nil {
		s.state.Store(int32(StateTerminated))
		return err
	}

	handle := s.connector.Handle()
	s.log.Info(msg, "database", handle.Name())

	var limiter *ratelimit.RateLimiter
	if s.cfg.RateLimit.Enabled {
		rl := s.cfg.RateLimit
		limiter = ratelimit.New(rl.RequestsPerSecond, rl.Burst, rl.CleanupInterval, rl.ClientExpiry)
		defer limiter.Close()
		s.log.Info("rate limiting enabled",
			"requests_per_second", rl.RequestsPerSecond,
			"burst", rl.Burst)
	}

	ln, err := net.Listen("tcp", s.cfg.GetListenAddr())
	if err != nil {
		s.state.Store(int32(StateTerminated))
		closeErr := s.connector.Close(context.WithoutCancel(ctx))
		return errors.Join(fmt.Errorf("failed to listen on %s: %w", s.cfg.GetListenAddr(), err), closeErr)
	}

	srv := &http.Server{
		Handler:           s.Routes(handlers.New(handle), limiter),
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.state.Store(int32(StateServing))
	close(s.ready)

	s.log.LogStartup(listenPort(ln.Addr()), s.cfg.Path, handle.Name())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		s.state.Store(int32(StateTerminated))
		closeErr := s.connector.Close(context.WithoutCancel(ctx))
		return errors.Join(fmt.Errorf("HTTP server failed: %w", err), closeErr)
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if err := s.connector.Close(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	s.log.Info("server exited")
	return shutdownErr
}

// Routes builds the HTTP handler: GET / and GET /healthcheck share the
// status handler; /metrics is added when metrics are enabled.
func (s *Server) Routes(h *handlers.Handlers, limiter *ratelimit.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	status := http.HandlerFunc(h.Status)
	mux.Handle("GET /{$}", s.metrics.Instrument("/", status))
	mux.Handle("GET /healthcheck", s.metrics.Instrument("/healthcheck", status))

	if s.cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var handler http.Handler = mux
	if limiter != nil {
		handler = limiter.Middleware(handler)
	}

	return handlers.RequestLogger(s.log, handler)
}

func listenPort(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
