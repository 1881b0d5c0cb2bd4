package resilience

import (
	"context"
	"time"
)

type outcome[T any] struct {
	value T
	err   error
}

// RetryWithTimeout races Retry against a timer of length timeout. If the
// timer fires first ErrTimeout is returned, the retrying branch has its
// context cancelled and its eventual result is dropped. It is not waited on,
// so an operation that ignores its context may still finish later.
func RetryWithTimeout[T any](ctx context.Context, op Operation[T], timeout time.Duration, opts RetryOptions) (T, error) {
	var zero T

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan outcome[T], 1)
	go func() {
		v, err := Retry(runCtx, op, opts)
		done <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		cancel()
		return out.value, out.err
	case <-timer.C:
		cancel()
		return zero, ErrTimeout
	case <-ctx.Done():
		cancel()
		return zero, ctx.Err()
	}
}
