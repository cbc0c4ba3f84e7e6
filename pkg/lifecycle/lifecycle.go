// Package lifecycle coordinates startup and shutdown of long-lived subsystems.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Hook states reported by Status.
const (
	StatePending = "pending"
	StateUp      = "up"
	StateFailed  = "failed"
)

// Coordinator runs named startup hooks concurrently, tracks their outcome,
// and fans out cancellation to shutdown hooks.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	starting sync.WaitGroup
	stopping sync.WaitGroup

	mu     sync.RWMutex
	ready  bool
	states map[string]string
	errs   []error
}

// New creates a Coordinator whose context is cancelled by Shutdown.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		states: make(map[string]string),
	}
}

// Context returns the coordinator's context.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. A returned error marks the hook
// failed and keeps the coordinator not ready.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.setState(name, StatePending, nil)
	c.starting.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.setState(name, StateFailed, fmt.Errorf("%s: %w", name, err))
			return
		}
		c.setState(name, StateUp, nil)
	})
}

// OnShutdown runs fn in its own goroutine. Hooks block on
// <-c.Context().Done() before releasing their resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.stopping.Go(fn)
}

// Ready reports whether WaitForStartup completed with every hook up.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Status returns the state of every registered startup hook by name.
func (c *Coordinator) Status() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.states)
}

// WaitForStartup blocks until every startup hook returns and reports the
// joined hook failures.
func (c *Coordinator) WaitForStartup() error {
	c.starting.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := errors.Join(c.errs...); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Shutdown cancels the coordinator's context and waits up to timeout for
// the shutdown hooks to return.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.stopping.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown hooks still running after %v", timeout)
	}
}

func (c *Coordinator) setState(name, state string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[name] = state
	if err != nil {
		c.errs = append(c.errs, err)
	}
}
