package resilience

import (
	"context"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 60 * time.Second
)

// CircuitBreaker stops calling an operation after threshold consecutive
// failures until timeout has elapsed since the last one. The next call
// after the cool-down is let through in the half-open state; its outcome
// decides whether the breaker closes again.
//
// Safe for concurrent use. The lock covers accounting only, never the
// wrapped operation.
type CircuitBreaker struct {
	threshold int
	timeout   time.Duration
	now       func() time.Time
	onChange  func(from, to State)

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// BreakerOption customises a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithStateListener registers fn to be called on every state transition.
// fn runs with the breaker's lock held and must not call back into it.
func WithStateListener(fn func(from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// NewCircuitBreaker creates a closed breaker. Non-positive threshold or
// timeout fall back to DefaultBreakerThreshold and DefaultBreakerTimeout.
func NewCircuitBreaker(threshold int, timeout time.Duration, opts ...BreakerOption) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	if timeout <= 0 {
		timeout = DefaultBreakerTimeout
	}
	cb := &CircuitBreaker{
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
		state:     StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the breaker is open. An open breaker whose
// cool-down has passed moves to half-open and runs fn. fn's error is
// returned unchanged.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

// Call is Execute for operations that produce a value.
func Call[T any](ctx context.Context, cb *CircuitBreaker, op Operation[T]) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker and forgets all failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.transitionTo(StateClosed)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if cb.now().Sub(cb.lastFailure) > cb.timeout {
		cb.transitionTo(StateHalfOpen)
		return nil
	}
	return ErrCircuitOpen
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.transitionTo(StateClosed)
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = cb.now()
	if cb.failures >= cb.threshold {
		cb.transitionTo(StateOpen)
	}
}

// transitionTo must be called with mu held.
func (cb *CircuitBreaker) transitionTo(next State) {
	prev := cb.state
	cb.state = next
	if prev != next && cb.onChange != nil {
		cb.onChange(prev, next)
	}
}
