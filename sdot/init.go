package sdot

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// InitialWeights produces a weight vector for the given seeds whose Laguerre
// cells all have area strictly above the degeneracy threshold, suitable as a
// starting point for a damped-Newton optimal transport solve.
//
// The closed-form default guess (cost-transform of the zero potential) is
// returned directly when it already induces no degenerate cell — the common
// case. When it does not, seeds outside the box share their periodic-axis
// coordinate and the guess pins their cell boundaries onto the box edge; the
// perturbation-correction loop then separates the seeds with a small random
// offset, solves the perturbed problem to optimality, and transports that
// solution back to the real seeds with a first-order correction, halving the
// offset until the corrected weights pass the threshold.
//
// targets may be nil for a uniform partition of the box. The domain must be
// periodic in at least one axis.
func InitialWeights(box orb.Bound, seeds []orb.Point, targets []float64, per Periodicity, cfg InitConfig) (InitResult, error) {
	n := len(seeds)
	if n == 0 {
		return InitResult{}, ErrNoSeeds
	}
	if !per.X && !per.Y {
		return InitResult{}, ErrNoPeriodicAxis
	}
	if targets == nil {
		targets = UniformTargets(box, n)
	}
	if len(targets) != n {
		return InitResult{}, ErrDimensionMismatch
	}
	if cfg.Damping <= 0 {
		cfg.Damping = DefaultDamping
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.AreaThreshold <= 0 {
		cfg.AreaThreshold = DefaultThresholdFraction * boxArea(box) / float64(n)
	}
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tess := cfg.Tess
	if tess == nil {
		tess = NewLaguerre(box, per)
	}

	guess := tess.DefaultGuess(seeds)
	areas, err := tess.Areas(seeds, guess)
	if err != nil {
		return InitResult{}, fmt.Errorf("sdot: default guess area query: %w", err)
	}
	if min := floats.Min(areas); min > cfg.AreaThreshold {
		return InitResult{
			Weights:   guess,
			Areas:     areas,
			MinArea:   min,
			Threshold: cfg.AreaThreshold,
		}, nil
	}
	return perturbAndCorrect(tess, box, seeds, targets, per, cfg)
}

// perturbAndCorrect is the recovery path for a degenerate default guess. The
// perturbation offsets are drawn once, in the periodic axes only: degenerate
// alignment means seeds share a periodic-axis coordinate, and only an offset
// in that coordinate separates their cost-transform contact points on the box
// edge. The same offsets are halved on every failed attempt, so the schedule
// is exactly geometric.
func perturbAndCorrect(tess Tessellation, box orb.Bound, seeds []orb.Point, targets []float64, per Periodicity, cfg InitConfig) (InitResult, error) {
	n := len(seeds)
	pert := make([]orb.Point, n)
	ampX, ampY := 0.0, 0.0
	if per.X {
		ampX = math.Ldexp(box.Max[0]-box.Min[0], -amplitudeShift)
	}
	if per.Y {
		ampY = math.Ldexp(box.Max[1]-box.Min[1], -amplitudeShift)
	}
	for i := range pert {
		if per.X {
			pert[i][0] = ampX * (2*cfg.RNG.Float64() - 1)
		}
		if per.Y {
			pert[i][1] = ampY * (2*cfg.RNG.Float64() - 1)
		}
	}
	amplitude := math.Max(ampX, ampY)

	var prevSeeds []orb.Point
	var prevWeights []float64
	lastMin := math.NaN()
	lastAmp := amplitude

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastAmp = amplitude
		perturbed := make([]orb.Point, n)
		for i, z := range seeds {
			perturbed[i] = orb.Point{z[0] + pert[i][0], z[1] + pert[i][1]}
		}

		// Initial guess for the perturbed solve: extrapolate from the
		// previous perturbed solution when one exists and is usable,
		// otherwise fall back to the default guess.
		var initial []float64
		usedDefault := false
		if prevWeights == nil {
			initial = tess.DefaultGuess(perturbed)
			usedDefault = true
		} else {
			extrap, err := firstOrderShift(tess, prevSeeds, prevWeights, perturbed)
			ok := err == nil
			if ok {
				a, aerr := tess.Areas(perturbed, extrap)
				ok = aerr == nil && floats.Min(a) > cfg.AreaThreshold
			}
			if ok {
				initial = extrap
			} else {
				initial = tess.DefaultGuess(perturbed)
				usedDefault = true
			}
		}

		solved, err := tess.Solve(perturbed, targets, initial, cfg.Damping)
		if err != nil && !usedDefault {
			// One local recovery: retry from the default guess.
			solved, err = tess.Solve(perturbed, targets, tess.DefaultGuess(perturbed), cfg.Damping)
		}
		if err != nil {
			return InitResult{}, fmt.Errorf("sdot: perturbed solve failed on attempt %d: %w", attempt, err)
		}

		candidate, err := firstOrderShift(tess, perturbed, solved, seeds)
		if err != nil && !errors.Is(err, ErrSingularSystem) {
			return InitResult{}, fmt.Errorf("sdot: correction step failed on attempt %d: %w", attempt, err)
		}
		if err == nil {
			areas, aerr := tess.Areas(seeds, candidate)
			if aerr != nil {
				return InitResult{}, fmt.Errorf("sdot: candidate area query: %w", aerr)
			}
			min := floats.Min(areas)
			lastMin = min
			if min > cfg.AreaThreshold {
				return InitResult{
					Weights:   candidate,
					Areas:     areas,
					MinArea:   min,
					Threshold: cfg.AreaThreshold,
					Attempts:  attempt,
					Perturbed: true,
				}, nil
			}
		}
		// A singular correction solve lands here too: shrink the
		// perturbation and try again from the current perturbed solution.

		prevSeeds, prevWeights = perturbed, solved
		for i := range pert {
			pert[i][0] /= 2
			pert[i][1] /= 2
		}
		amplitude /= 2
	}
	return InitResult{}, &BudgetError{
		Attempts:      cfg.MaxAttempts,
		LastMinArea:   lastMin,
		LastAmplitude: lastAmp,
	}
}

// firstOrderShift transports solved weights from one seed configuration to a
// nearby one: a single implicit-function-theorem step on
// areas(seeds, weights) = targets, linearized at (from, weights). The weight
// increment solves the reduced weight-Jacobian block against the area change
// induced by the seed displacement, and keeps the last weight at zero.
func firstOrderShift(tess Tessellation, from []orb.Point, weights []float64, to []orb.Point) ([]float64, error) {
	n := len(from)
	out := make([]float64, n)
	copy(out, weights)
	if n == 1 {
		return out, nil
	}

	jac, err := tess.Derivatives(from, weights)
	if err != nil {
		return nil, err
	}
	dx := mat.NewVecDense(n, nil)
	dy := mat.NewVecDense(n, nil)
	for i := range from {
		dx.SetVec(i, to[i][0]-from[i][0])
		dy.SetVec(i, to[i][1]-from[i][1])
	}
	var bx, by mat.VecDense
	bx.MulVec(jac.DX, dx)
	by.MulVec(jac.DY, dy)

	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = -(bx.AtVec(i) + by.AtVec(i))
	}
	inc, err := solveReduced(jac.DW, rhs)
	if err != nil {
		return nil, err
	}
	floats.Add(out, inc)
	return out, nil
}
