package lti

import "errors"

var (
	// ErrHandle indicates a handle that was never returned by the engine.
	ErrHandle = errors.New("lti: handle out of range")

	// ErrNotDiscrete is returned when a continuous system is registered as
	// discrete.
	ErrNotDiscrete = errors.New("lti: system is not discrete-time")

	// ErrNotContinuous is returned when a discrete system is passed where a
	// continuous one is expected.
	ErrNotContinuous = errors.New("lti: system is not continuous-time")

	// ErrPeriod indicates a non-positive discretization period.
	ErrPeriod = errors.New("lti: discretization period must be positive")

	// ErrImproper indicates a transfer function with a numerator of higher
	// degree than its denominator.
	ErrImproper = errors.New("lti: transfer function is improper")

	// ErrDimension indicates inconsistent matrix or state sizes.
	ErrDimension = errors.New("lti: dimension mismatch")

	// ErrMethod indicates an unknown discretization method.
	ErrMethod = errors.New("lti: unknown discretization method")
)
