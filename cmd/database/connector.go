package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// SuccessMessage is returned by Connect once the handle is stored
const SuccessMessage = "DB connection successful!"

// ErrNilHandle is returned when a Dialer reports success without a handle
var ErrNilHandle = errors.New("dialer returned no handle")

// Handle is an open database session
type Handle interface {
	// Name is the default database the session operates on
	Name() string
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Dialer opens a Handle for a connection URL
type Dialer interface {
	Dial(ctx context.Context, url string) (Handle, error)
}

// Connector owns the single database handle of the process.
// The handle is absent until Connect succeeds; there is no partial state.
type Connector struct {
	dialer Dialer
	mu     sync.RWMutex
	handle Handle
}

// NewConnector creates a connector that opens sessions through dialer
func NewConnector(dialer Dialer) *Connector {
	return &Connector{dialer: dialer}
}

// Connect makes one connection attempt to url. On success the handle is
// stored and SuccessMessage is returned. On failure the dialer error is
// returned and the stored handle is left untouched.
func (c *Connector) Connect(ctx context.Context, url string) (string, error) {
	handle, err := c.dialer.Dial(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}
	if handle == nil {
		return "", ErrNilHandle
	}

	c.mu.Lock()
	previous := c.handle
	c.handle = handle
	c.mu.Unlock()

	if previous != nil {
		// superseded session
		_ = previous.Disconnect(ctx)
	}

	return SuccessMessage, nil
}

// Handle returns the stored handle, or nil before a successful Connect
func (c *Connector) Handle() Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle
}

// Close disconnects the stored handle, if any
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()

	if handle == nil {
		return nil
	}
	if err := handle.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from database: %w", err)
	}
	return nil
}
