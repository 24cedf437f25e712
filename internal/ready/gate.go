// Package ready provides the process readiness gate guarding permission
// checks during startup.
package ready

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate starts closed and opens exactly once, after the process has finished
// warming up (config loaded, revocation store reachable, signal watcher
// subscribed). While closed, access checks are not trustworthy: consumers
// must treat a closed gate as "unknown, render the safe fallback", never as
// denied.
type Gate struct {
	once   sync.Once
	open   atomic.Bool
	opened chan struct{}
}

// NewGate returns a closed Gate.
func NewGate() *Gate {
	return &Gate{opened: make(chan struct{})}
}

// Open opens the gate. Safe to call more than once; only the first call has
// effect.
func (g *Gate) Open() {
	g.once.Do(func() {
		g.open.Store(true)
		close(g.opened)
	})
}

// Ready reports whether the gate has opened.
func (g *Gate) Ready() bool {
	return g.open.Load()
}

// Wait blocks until the gate opens or ctx is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.opened:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
