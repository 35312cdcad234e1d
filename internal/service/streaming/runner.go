// Package streaming runs plan generation and chunking as mstream streams
// that outlive the request that started them.
package streaming

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// DefaultRetention is how long a finished run stays attachable.
const DefaultRetention = 5 * time.Minute

// WorkFunc does the work of a run and reports progress through emit.
// ctx is cancelled only when the run is cancelled.
type WorkFunc func(ctx context.Context, emit func(models.ProgressEvent))

// Runner owns the mstream streams of pipeline runs, keyed "plan:<session>"
// and "chunking:<session>". At most one unfinished run exists per key.
type Runner struct {
	registry  *mstream.Registry
	retention time.Duration
	eventIDs  bool
	logger    *slog.Logger

	mu   sync.Mutex
	runs map[string]*Run
	wg   sync.WaitGroup
}

// NewRunner creates a runner that registers its streams in registry.
// eventIDs numbers stream events; it is meant for debugging.
func NewRunner(registry *mstream.Registry, eventIDs bool, logger *slog.Logger) *Runner {
	return &Runner{
		registry:  registry,
		retention: DefaultRetention,
		eventIDs:  eventIDs,
		logger:    logger,
		runs:      make(map[string]*Run),
	}
}

// Start launches work under key. If an unfinished run already holds key,
// that run is returned instead and started is false.
func (r *Runner) Start(key string, work WorkFunc) (run *Run, started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(time.Now())
	if existing, ok := r.runs[key]; ok && !existing.Finished() {
		return existing, false
	}

	run = newRun(key)
	logger := r.logger.With("stream", key)

	run.stream = mstream.NewStream(
		key,
		func(ctx context.Context, send func(mstream.Event)) error {
			defer r.wg.Done()
			defer run.finish()
			defer func() {
				if p := recover(); p != nil {
					logger.Error("stream work panicked", "panic", p)
					run.append(models.NewProgressEvent(models.EventError, models.ErrorData{
						Message: fmt.Sprintf("internal error: %v", p),
					}))
				}
			}()

			work(ctx, func(e models.ProgressEvent) {
				run.append(e)
				ev, err := toStreamEvent(e)
				if err != nil {
					logger.Error("failed to encode progress event", "event", e.Name, "error", err)
					return
				}
				send(ev)
			})
			return nil
		},
		mstream.WithCatchup(run.catchup),
		mstream.WithEventIDs(r.eventIDs),
	)

	r.runs[key] = run
	r.registry.Register(run.stream)
	r.wg.Add(1)
	go run.stream.Start()

	logger.Debug("stream registered")
	return run, true
}

// Get returns the run held under key, finished or not, while it is retained.
func (r *Runner) Get(key string) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(time.Now())
	run, ok := r.runs[key]
	return run, ok
}

// Cancel cancels the unfinished run under key through its stream.
func (r *Runner) Cancel(key string) bool {
	run, ok := r.Get(key)
	if !ok || run.Finished() {
		return false
	}
	stream := r.registry.Get(key)
	if stream == nil {
		return false
	}
	stream.Cancel()
	return true
}

// Active returns the keys of unfinished runs, sorted.
func (r *Runner) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.runs))
	for k, run := range r.runs {
		if !run.Finished() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Wait blocks until every run has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) pruneLocked(now time.Time) {
	for k, run := range r.runs {
		if finishedAt, ok := run.finishedAt(); ok && now.Sub(finishedAt) > r.retention {
			delete(r.runs, k)
		}
	}
}
