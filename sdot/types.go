// Package sdot computes robust initial weight vectors for semi-discrete
// optimal transport on a planar box with periodic boundary conditions in one
// or both axes. The main entry point is InitialWeights, which returns weights
// whose induced Laguerre cells all have area above a degeneracy threshold,
// perturbing and correcting the seed configuration when the closed-form guess
// is degenerate.
package sdot

import (
	"math/rand"
	"time"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultDamping is the damped-Newton damping parameter: the fraction of
	// the initial minimum cell area the line search refuses to collapse below.
	DefaultDamping = 0.1

	// DefaultMaxAttempts bounds the perturbation-halving loop. Halving is
	// geometric, so configurations that survive this many attempts are not
	// going to be rescued by a smaller perturbation.
	DefaultMaxAttempts = 30

	// DefaultThresholdFraction scales the derived degeneracy threshold:
	// threshold = fraction * domain area / seed count.
	DefaultThresholdFraction = 1e-14

	// amplitudeShift sets the initial perturbation amplitude to
	// 2^-amplitudeShift times the domain extent in the perturbed axis.
	amplitudeShift = 6
)

// Periodicity selects which axes of the domain box wrap around.
type Periodicity struct {
	X bool
	Y bool
}

// Partial reports whether exactly one axis is periodic. This is the regime
// where the default weight guess can be degenerate.
func (p Periodicity) Partial() bool {
	return p.X != p.Y
}

// MassJacobian holds the cell-area vector and its sensitivities to the
// weights and to the seed coordinates, evaluated at one (seeds, weights)
// configuration. Row i differentiates the area of cell i.
type MassJacobian struct {
	Areas []float64
	DW    *mat.Dense // ∂area_i / ∂weight_j
	DX    *mat.Dense // ∂area_i / ∂seedX_j
	DY    *mat.Dense // ∂area_i / ∂seedY_j
}

// Tessellation is the geometric backend consumed by the initializer: guess
// construction, cell-area queries, mass-map derivatives, and the damped-Newton
// optimal-weight solve. Laguerre is the production implementation; tests
// substitute fakes to script failure paths.
type Tessellation interface {
	// DefaultGuess returns the cost-transform of the zero potential for the
	// given seeds. It is defined for every seed configuration but may induce
	// zero-area cells.
	DefaultGuess(seeds []orb.Point) []float64

	// Areas returns the area of each seed's Laguerre cell intersected with
	// the domain box, wrapped across periodic axes.
	Areas(seeds []orb.Point, weights []float64) ([]float64, error)

	// Derivatives returns the areas together with their Jacobian blocks with
	// respect to weights and seed coordinates.
	Derivatives(seeds []orb.Point, weights []float64) (*MassJacobian, error)

	// Solve drives the cell areas to the prescribed targets starting from the
	// given weights. The returned vector has its last entry fixed at zero.
	Solve(seeds []orb.Point, targets, initial []float64, damping float64) ([]float64, error)
}

// InitConfig holds tuning parameters for InitialWeights. The zero value is
// usable: every field falls back to its default.
type InitConfig struct {
	Damping       float64    // damped-Newton damping parameter (default 0.1)
	AreaThreshold float64    // degeneracy threshold; <= 0 derives it from the domain
	MaxAttempts   int        // perturbation-halving budget (default 30)
	RNG           *rand.Rand // random source for perturbation offsets
	Tess          Tessellation
}

// DefaultInitConfig returns the defaults used when InitConfig fields are left
// zero. The RNG is time-seeded; supply a seeded one for reproducible runs.
func DefaultInitConfig() InitConfig {
	return InitConfig{
		Damping:     DefaultDamping,
		MaxAttempts: DefaultMaxAttempts,
		RNG:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// InitResult reports a validated weight vector together with the evidence
// that validated it.
type InitResult struct {
	Weights   []float64
	Areas     []float64
	MinArea   float64
	Threshold float64
	Attempts  int  // perturbation attempts consumed; 0 when the guess passed
	Perturbed bool // whether the perturbation-correction loop ran
}

// boxArea returns the area of the domain box.
func boxArea(b orb.Bound) float64 {
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1])
}

// UniformTargets returns the target area vector assigning each of n cells an
// equal share of the box.
func UniformTargets(box orb.Bound, n int) []float64 {
	targets := make([]float64, n)
	share := boxArea(box) / float64(n)
	for i := range targets {
		targets[i] = share
	}
	return targets
}
