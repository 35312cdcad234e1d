package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTryGo_RefusesDuplicateKey(t *testing.T) {
	tr := newTestTracker()
	release := make(chan struct{})

	require.True(t, tr.TryGo(context.Background(), "a", func(ctx context.Context) { <-release }))
	assert.False(t, tr.TryGo(context.Background(), "a", func(ctx context.Context) {}))
	assert.True(t, tr.Running("a"))
	assert.Equal(t, []string{"a"}, tr.Keys())

	close(release)
	require.NoError(t, tr.Wait(context.Background()))
	assert.False(t, tr.Running("a"))
	assert.True(t, tr.TryGo(context.Background(), "a", func(ctx context.Context) {}))
	require.NoError(t, tr.Wait(context.Background()))
}

func TestTryGo_DetachesCancellation(t *testing.T) {
	tr := newTestTracker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	tr.TryGo(ctx, "job", func(ctx context.Context) { errCh <- ctx.Err() })
	require.NoError(t, tr.Wait(context.Background()))
	assert.NoError(t, <-errCh)
}

func TestTryGo_RecoversPanic(t *testing.T) {
	tr := newTestTracker()
	tr.TryGo(context.Background(), "boom", func(ctx context.Context) { panic("bad") })
	require.NoError(t, tr.Wait(context.Background()))
	assert.False(t, tr.Running("boom"))
}

func TestWait_ContextDeadline(t *testing.T) {
	tr := newTestTracker()
	release := make(chan struct{})
	defer close(release)
	tr.TryGo(context.Background(), "slow", func(ctx context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Wait(ctx), context.DeadlineExceeded)
}
