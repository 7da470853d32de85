package sdot

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSeeds is returned when a seed slice is empty.
	ErrNoSeeds = errors.New("sdot: at least one seed required")

	// ErrNoPeriodicAxis is returned by InitialWeights when neither axis is
	// periodic. The initialization algorithm is only defined under periodic
	// boundary conditions in at least one axis.
	ErrNoPeriodicAxis = errors.New("sdot: domain must be periodic in at least one axis")

	// ErrDimensionMismatch is returned when seed, weight and target slices
	// disagree in length.
	ErrDimensionMismatch = errors.New("sdot: seed, weight and target lengths differ")

	// ErrSingularSystem is returned when the reduced weight-Jacobian block is
	// singular or produces a non-finite solution.
	ErrSingularSystem = errors.New("sdot: singular weight Jacobian block")

	// ErrBadTargets is returned when target areas are not strictly positive
	// or do not sum to the domain area.
	ErrBadTargets = errors.New("sdot: target areas must be positive and sum to the domain area")
)

// ConvergenceError reports a damped-Newton solve that ran out of iterations
// or whose line search stalled.
type ConvergenceError struct {
	Iterations int
	Residual   float64 // L2 norm of area residual at the last iterate
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("sdot: newton solve did not converge after %d iterations (residual %.3e)", e.Iterations, e.Residual)
}

// BudgetError reports that the perturbation-correction loop exhausted its
// attempt budget without producing a non-degenerate weight vector.
type BudgetError struct {
	Attempts      int
	LastMinArea   float64 // minimum cell area of the last candidate (NaN if none reached)
	LastAmplitude float64 // perturbation amplitude of the last attempt
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("sdot: no non-degenerate weights after %d perturbation attempts (last min area %.3e, last amplitude %.3e)",
		e.Attempts, e.LastMinArea, e.LastAmplitude)
}
