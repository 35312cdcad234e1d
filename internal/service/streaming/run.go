package streaming

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// Run is one registered stream plus the ordered log of its events.
type Run struct {
	key    string
	stream *mstream.Stream

	mu       sync.Mutex
	events   []models.ProgressEvent
	changed  chan struct{}
	done     bool
	finished time.Time
}

func newRun(key string) *Run {
	return &Run{key: key, changed: make(chan struct{})}
}

// Key returns the registry key of the run.
func (r *Run) Key() string { return r.key }

// Finished reports whether the work function has returned.
func (r *Run) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Run) finishedAt() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished, r.done
}

func (r *Run) append(e models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.events = append(r.events, e)
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Run) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.finished = time.Now()
	close(r.changed)
}

// since returns the events from index next on, a channel closed on the
// next change, and whether the run had finished when the snapshot was taken.
func (r *Run) since(next int) ([]models.ProgressEvent, <-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []models.ProgressEvent
	if next < len(r.events) {
		events = append(events, r.events[next:]...)
	}
	return events, r.changed, r.done
}

// Subscribe replays every event of the run from the first, then follows it
// live. The channel closes after the last event or when ctx is done;
// leaving never stops the run.
func (r *Run) Subscribe(ctx context.Context) <-chan models.ProgressEvent {
	out := make(chan models.ProgressEvent)
	go func() {
		defer close(out)
		next := 0
		for {
			events, changed, done := r.since(next)
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
			next += len(events)
			if done {
				return
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// catchup serves mstream reconnections from the event log. Event IDs are
// optional, so the whole log is replayed.
func (r *Run) catchup(streamID, lastEventID string) ([]mstream.Event, error) {
	events, _, _ := r.since(0)
	out := make([]mstream.Event, 0, len(events))
	for _, e := range events {
		ev, err := toStreamEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func toStreamEvent(e models.ProgressEvent) (mstream.Event, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		var zero mstream.Event
		return zero, err
	}
	return mstream.NewEvent(payload).WithType(e.Name), nil
}
