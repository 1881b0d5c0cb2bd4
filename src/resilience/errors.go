package resilience

import (
	"errors"
	"fmt"
)

var (
	// ErrRetriesExhausted is matched by every *RetryError.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrTimeout is returned by RetryWithTimeout when the deadline wins the race.
	ErrTimeout = errors.New("operation timed out")
	// ErrCircuitOpen is returned without running the operation while a
	// breaker is open and still cooling down.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// RetryError reports that every attempt failed. Err is the last failure.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap exposes both ErrRetriesExhausted and the underlying cause.
func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}
