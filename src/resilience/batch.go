package resilience

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds per-index outcomes of RetryBatch. For each index
// exactly one of Results[i] (success) or Errors[i] (failure) is set; the
// other slot keeps its zero value.
type BatchResult[T any] struct {
	Results []T
	Errors  []error
}

// Failed reports whether the operation at index i failed.
func (b BatchResult[T]) Failed(i int) bool {
	return b.Errors[i] != nil
}

// RetryBatch retries every operation independently and concurrently. A
// failure in one never stops the others; the call returns once all of
// them have finished.
func RetryBatch[T any](ctx context.Context, ops []Operation[T], opts RetryOptions) BatchResult[T] {
	res := BatchResult[T]{
		Results: make([]T, len(ops)),
		Errors:  make([]error, len(ops)),
	}

	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			v, err := Retry(ctx, op, opts)
			if err != nil {
				res.Errors[i] = err
				return nil
			}
			res.Results[i] = v
			return nil
		})
	}
	_ = g.Wait()

	return res
}
