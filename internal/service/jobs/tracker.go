// Package jobs runs and tracks background work that must outlive the HTTP
// request that started it.
package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Tracker manages background jobs keyed by name.
//
// Design:
//   - At most one job per key; TryGo refuses a key that is still running
//   - Jobs run on a context detached from the caller's cancellation
//   - Wait blocks until every job has returned, for graceful shutdown
type Tracker struct {
	mu      sync.Mutex
	running map[string]time.Time // key -> start time
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		running: make(map[string]time.Time),
		logger:  logger,
	}
}

// TryGo starts fn in a goroutine unless a job with the same key is running.
// fn receives a context that keeps ctx's values but is never cancelled.
// Returns false if the key is taken.
func (t *Tracker) TryGo(ctx context.Context, key string, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if _, exists := t.running[key]; exists {
		t.mu.Unlock()
		return false
	}
	t.running[key] = time.Now()
	t.wg.Add(1)
	t.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer t.finish(key)
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("background job panicked", "job", key, "panic", r)
			}
		}()
		fn(detached)
	}()
	return true
}

func (t *Tracker) finish(key string) {
	t.mu.Lock()
	started := t.running[key]
	delete(t.running, key)
	t.mu.Unlock()
	t.wg.Done()

	t.logger.Debug("background job finished", "job", key, "duration", time.Since(started).String())
}

// Running reports whether a job with key is in flight.
func (t *Tracker) Running(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[key]
	return ok
}

// Keys returns the keys of running jobs, sorted.
// Useful for debugging and monitoring.
func (t *Tracker) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.running))
	for k := range t.running {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Wait blocks until all jobs finish or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
