package sdot

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// Solve runs a damped Newton iteration driving the cell areas to the target
// vector. Each step solves the reduced weight-Jacobian system for a full
// Newton direction and backtracks until the residual shrinks and no cell
// collapses below damping times the initial minimum area (or minimum target,
// whichever is smaller). The returned weights carry the fixed-last-weight
// convention: the final entry is exactly zero.
func (l *Laguerre) Solve(seeds []orb.Point, targets, initial []float64, damping float64) ([]float64, error) {
	n := len(seeds)
	if n == 0 {
		return nil, ErrNoSeeds
	}
	if len(targets) != n || len(initial) != n {
		return nil, ErrDimensionMismatch
	}
	if err := checkTargets(targets, boxArea(l.Box)); err != nil {
		return nil, err
	}
	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}

	// Normalize onto the fixed-last-weight convention. Areas depend only on
	// weight differences, so this does not move the iterate.
	w := make([]float64, n)
	shift := initial[n-1]
	for i, v := range initial {
		w[i] = v - shift
	}
	if n == 1 {
		return w, nil
	}

	jac, err := l.Derivatives(seeds, w)
	if err != nil {
		return nil, err
	}
	resid := residual(jac.Areas, targets)
	norm := floats.Norm(resid, 2)

	minTarget := floats.Min(targets)
	floor := damping * math.Min(floats.Min(jac.Areas), minTarget)
	if floor < 0 {
		floor = 0
	}
	tol := l.Tolerance * minTarget

	for it := 0; it < l.MaxIterations; it++ {
		if maxAbs(resid) <= tol {
			return w, nil
		}
		neg := make([]float64, n)
		for i, r := range resid {
			neg[i] = -r
		}
		dir, err := solveReduced(jac.DW, neg)
		if err != nil {
			return nil, fmt.Errorf("newton step %d: %w", it, err)
		}

		step := 1.0
		for {
			trial := make([]float64, n)
			floats.AddScaledTo(trial, w, step, dir)
			tj, err := l.Derivatives(seeds, trial)
			if err != nil {
				return nil, err
			}
			tResid := residual(tj.Areas, targets)
			tNorm := floats.Norm(tResid, 2)
			if floats.Min(tj.Areas) >= floor && tNorm <= (1-step/2)*norm {
				w, jac, resid, norm = trial, tj, tResid, tNorm
				break
			}
			step /= 2
			if step < 1e-12 {
				return nil, &ConvergenceError{Iterations: it, Residual: norm}
			}
		}
	}
	if maxAbs(resid) <= tol {
		return w, nil
	}
	return nil, &ConvergenceError{Iterations: l.MaxIterations, Residual: norm}
}

func checkTargets(targets []float64, total float64) error {
	sum := 0.0
	for _, t := range targets {
		if t <= 0 {
			return ErrBadTargets
		}
		sum += t
	}
	if math.Abs(sum-total) > 1e-8*total {
		return ErrBadTargets
	}
	return nil
}

func residual(areas, targets []float64) []float64 {
	r := make([]float64, len(areas))
	floats.SubTo(r, areas, targets)
	return r
}

func maxAbs(s []float64) float64 {
	max := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	return max
}
