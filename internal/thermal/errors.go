package thermal

import "errors"

// Domain errors shared across the runtime.
var (
	// ErrInvalidPeriod indicates a non-positive control or sampling period.
	ErrInvalidPeriod = errors.New("thermal: period must be positive")

	// ErrStopped indicates the experiment was stopped before its final row.
	ErrStopped = errors.New("thermal: experiment stopped")
)

// CycleError wraps a failure with the control cycle it happened in.
type CycleError struct {
	Cycle   int
	Elapsed int64
	Wrapped error
}

func (e *CycleError) Error() string {
	return e.Wrapped.Error()
}

func (e *CycleError) Unwrap() error {
	return e.Wrapped
}
