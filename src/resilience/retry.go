// Package resilience provides retry, timeout and circuit breaker wrappers
// for fallible operations. Nothing in here knows what the operation does.
package resilience

import (
	"context"
	"fmt"
	"time"
)

// Operation is a fallible unit of work. Implementations should honour ctx.
type Operation[T any] func(ctx context.Context) (T, error)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second

	// MaxBackoffDelay caps the doubled delay. A Delay above it is used as is.
	MaxBackoffDelay = time.Hour
)

// RetryOptions controls Retry. Start from DefaultRetryOptions; the zero
// value means a single attempt with no delay.
type RetryOptions struct {
	// MaxAttempts is the total number of attempts. Values below 1 are
	// treated as 1.
	MaxAttempts int
	// Delay is the wait after the first failure.
	Delay time.Duration
	// Backoff doubles the delay after each further failure, up to
	// MaxBackoffDelay.
	Backoff bool
	// OnRetry is called with the 1-based attempt number that just failed,
	// before the delay. Optional.
	OnRetry func(attempt int, err error)
}

// DefaultRetryOptions returns 3 attempts, 1s initial delay, exponential backoff.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Backoff:     true,
	}
}

// delayFor returns the wait after the given failed attempt (1-based).
func (o RetryOptions) delayFor(attempt int) time.Duration {
	if o.Delay <= 0 {
		return 0
	}
	if !o.Backoff {
		return o.Delay
	}
	d := o.Delay
	for i := 1; i < attempt && d < MaxBackoffDelay; i++ {
		d *= 2
	}
	return min(d, max(o.Delay, MaxBackoffDelay))
}

// Retry runs op until it succeeds or MaxAttempts attempts have failed.
// The final failure is returned as a *RetryError. Cancelling ctx while
// waiting between attempts stops the loop early.
func Retry[T any](ctx context.Context, op Operation[T], opts RetryOptions) (T, error) {
	var zero T

	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt >= attempts {
			return zero, &RetryError{Attempts: attempts, Err: err}
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		if err := sleep(ctx, opts.delayFor(attempt)); err != nil {
			return zero, fmt.Errorf("retry after attempt %d: %w", attempt, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
