package jobs

import (
	"errors"
	"sync"
)

// ErrBusy is returned when another portal operation holds the gate
var ErrBusy = errors.New("a portal operation is already running")

// Gate lets one portal operation (sync or search) use the browser session at
// a time. Callers that find it taken are turned away instead of queued.
type Gate struct {
	mu      sync.Mutex
	running bool
}

// TryRun runs fn if the gate is free, or returns ErrBusy without running it
func (g *Gate) TryRun(fn func()) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return ErrBusy
	}
	g.running = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	}()
	fn()
	return nil
}

// Busy reports whether an operation is in flight
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
