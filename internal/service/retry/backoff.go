// Package retry provides the exponential backoff wrapper used around every
// discrete oracle and storage call.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
)

// Policy configures Do. The wait after the k-th failed attempt (0-indexed)
// is BaseDelay*2^k, capped at MaxDelay, plus a uniform random duration in
// [0, Jitter).
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     time.Duration
	// MaxDelay caps the exponential part. Zero uses DefaultRetryMaxDelay.
	MaxDelay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Rand returns a value in [0, 1). Nil uses math/rand/v2.
	Rand func() float64
	// Logger receives one warning per retry. Nil disables logging.
	Logger *slog.Logger
}

// DefaultPolicy returns 5 retries, 1s base delay and 500ms jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: config.DefaultMaxRetries,
		BaseDelay:  config.DefaultRetryBaseDelay,
		Jitter:     config.DefaultRetryJitter,
		MaxDelay:   config.DefaultRetryMaxDelay,
	}
}

// FromConfig builds a policy from the service configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) Policy {
	return Policy{
		MaxRetries: cfg.RetryMaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		Jitter:     cfg.RetryJitter,
		MaxDelay:   cfg.RetryMaxDelay,
		Logger:     logger,
	}
}

// Delay returns the wait before the retry that follows failed attempt k.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.backoff(attempt)
	if p.Jitter > 0 {
		r := rand.Float64
		if p.Rand != nil {
			r = p.Rand
		}
		d += time.Duration(r() * float64(p.Jitter))
	}
	return d
}

// backoff doubles BaseDelay attempt times without passing MaxDelay, so
// large attempt counts cannot overflow.
func (p Policy) backoff(attempt int) time.Duration {
	limit := p.MaxDelay
	if limit <= 0 {
		limit = config.DefaultRetryMaxDelay
	}
	d := p.BaseDelay
	if d <= 0 {
		return 0
	}
	if d >= limit {
		return limit
	}
	for i := 0; i < attempt; i++ {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	return d
}

// Do runs op up to MaxRetries+1 times. Every error is retried. When all
// attempts fail the last error is returned as is. If ctx ends during a
// backoff wait, the context error is returned joined with the last error.
func Do[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt)
		if p.Logger != nil {
			p.Logger.Warn("operation failed, retrying",
				"operation", name,
				"attempt", attempt+1,
				"max_attempts", attempts,
				"delay", delay.String(),
				"error", err,
			)
		}

		if err := p.sleep(ctx, delay); err != nil {
			return zero, errors.Join(err, lastErr)
		}
	}

	return zero, lastErr
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, name string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
