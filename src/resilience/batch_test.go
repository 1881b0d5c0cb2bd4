package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryBatch_IsolatesFailures(t *testing.T) {
	var finished int32
	op := func(v int, fail bool) Operation[int] {
		return func(context.Context) (int, error) {
			time.Sleep(5 * time.Millisecond)
			defer atomic.AddInt32(&finished, 1)
			if fail {
				return 0, errors.New("always fails")
			}
			return v, nil
		}
	}

	res := RetryBatch(context.Background(), []Operation[int]{
		op(10, false),
		op(0, true),
		op(30, false),
	}, fastOptions(2))

	if res.Results[0] != 10 || res.Results[2] != 30 {
		t.Errorf("results = %v, want [10 _ 30]", res.Results)
	}
	if res.Errors[0] != nil || res.Errors[2] != nil {
		t.Errorf("unexpected errors at 0/2: %v", res.Errors)
	}
	if !res.Failed(1) || !errors.Is(res.Errors[1], ErrRetriesExhausted) {
		t.Errorf("errors[1] = %v, want exhausted retries", res.Errors[1])
	}
	if res.Results[1] != 0 {
		t.Errorf("results[1] = %d, want zero value", res.Results[1])
	}
	// op 1 runs twice, the others once.
	if got := atomic.LoadInt32(&finished); got != 4 {
		t.Errorf("finished invocations = %d, want 4", got)
	}
}

func TestRetryBatch_RunsConcurrently(t *testing.T) {
	start := time.Now()
	ops := make([]Operation[struct{}], 5)
	for i := range ops {
		ops[i] = func(context.Context) (struct{}, error) {
			time.Sleep(50 * time.Millisecond)
			return struct{}{}, nil
		}
	}

	res := RetryBatch(context.Background(), ops, fastOptions(1))
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("elapsed = %v, operations did not run concurrently", elapsed)
	}
	for i := range ops {
		if res.Failed(i) {
			t.Errorf("op %d failed: %v", i, res.Errors[i])
		}
	}
}

func TestRetryBatch_Empty(t *testing.T) {
	res := RetryBatch[int](context.Background(), nil, DefaultRetryOptions())
	if len(res.Results) != 0 || len(res.Errors) != 0 {
		t.Errorf("res = %+v, want empty", res)
	}
}
