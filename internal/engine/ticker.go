package engine

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs one step. ctx is cancelled once the run is stopped; a step
// that observes a cancelled ctx must do nothing. Returning false ends the run.
type TickFunc func(ctx context.Context) bool

// Ticker owns at most one periodic goroutine. Steps never overlap.
type Ticker struct {
	interval time.Duration
	fn       TickFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

func NewTicker(interval time.Duration, fn TickFunc) *Ticker {
	return &Ticker{interval: interval, fn: fn}
}

// Start cancels the current run, if any, and begins a new one under parent.
// It does not wait for the previous goroutine, so it is safe to call while
// holding a lock that the previous run's step is waiting for.
func (t *Ticker) Start(parent context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.ctx, t.cancel = ctx, cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		tk := time.NewTicker(t.interval)
		defer tk.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if !t.fn(ctx) {
					return
				}
			}
		}
	}()
}

// Stop cancels the current run without waiting for it.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Running reports whether a run is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil && t.ctx.Err() == nil
}

// Wait blocks until every goroutine started so far has exited.
func (t *Ticker) Wait() {
	t.wg.Wait()
}
