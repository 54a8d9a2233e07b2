package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for propagation operations.
var (
	// ErrConfiguration indicates an inconsistent scenario: self-referential
	// accelerations, missing gravity fields, arity mismatches, unknown names.
	ErrConfiguration = errors.New("dynamo: configuration error")

	// ErrNumerical indicates a physically degenerate evaluation such as a
	// zero separation distance or a non-finite result.
	ErrNumerical = errors.New("dynamo: numerical error")

	// ErrNotEvaluated indicates a cached quantity was read before its first update.
	ErrNotEvaluated = errors.New("dynamo: quantity not yet evaluated")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// NumericalError describes a degenerate force evaluation between two bodies.
type NumericalError struct {
	Time     float64
	Affected string
	Exerting string
	Detail   string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("dynamo: numerical error at t=%.6f (%s <- %s): %s", e.Time, e.Affected, e.Exerting, e.Detail)
}

func (e *NumericalError) Unwrap() error {
	return ErrNumerical
}

// SimulationError wraps an error with propagation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
