package sdot

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Derivatives assembles the mass-map Jacobian blocks from the cell boundary
// structure. Every bisector edge shared by cells i and j contributes
//
//	∂area_i/∂w_i += len/(2 dist)        ∂area_i/∂w_j -= len/(2 dist)
//	∂area_i/∂z_i += len (mid - g)/dist  ∂area_i/∂z_j -= len (mid - z')/dist
//
// where g and z' are the generating and neighboring replica positions, mid
// the edge midpoint, and dist the distance between the replicas. Domain
// boundary edges contribute nothing. Rows of DW sum to zero (areas depend
// only on weight differences), which is why solves use the reduced leading
// block.
func (l *Laguerre) Derivatives(seeds []orb.Point, weights []float64) (*MassJacobian, error) {
	n := len(seeds)
	if n == 0 {
		return nil, ErrNoSeeds
	}
	if len(weights) != n {
		return nil, ErrDimensionMismatch
	}

	jac := &MassJacobian{
		Areas: make([]float64, n),
		DW:    mat.NewDense(n, n, nil),
		DX:    mat.NewDense(n, n, nil),
		DY:    mat.NewDense(n, n, nil),
	}

	reps := l.replicas(seeds)
	wMax := floats.Max(weights)
	for ri := range reps {
		c := l.cellFor(ri, reps, weights, wMax)
		if c.empty() {
			continue
		}
		i := reps[ri].seed
		g := reps[ri].pos
		jac.Areas[i] += c.area()

		m := len(c.verts)
		for k := 0; k < m; k++ {
			q := c.labels[k]
			if q == boxEdge {
				continue
			}
			p0 := c.verts[(k+m-1)%m]
			p1 := c.verts[k]
			length := math.Sqrt(dist2(p0, p1))
			if length == 0 {
				continue
			}
			np := reps[q].pos
			d := math.Sqrt(dist2(g, np))
			if d == 0 {
				continue
			}
			j := reps[q].seed
			mid := orb.Point{(p0[0] + p1[0]) / 2, (p0[1] + p1[1]) / 2}

			w := length / (2 * d)
			jac.DW.Set(i, i, jac.DW.At(i, i)+w)
			jac.DW.Set(i, j, jac.DW.At(i, j)-w)

			jac.DX.Set(i, i, jac.DX.At(i, i)+length*(mid[0]-g[0])/d)
			jac.DX.Set(i, j, jac.DX.At(i, j)-length*(mid[0]-np[0])/d)
			jac.DY.Set(i, i, jac.DY.At(i, i)+length*(mid[1]-g[1])/d)
			jac.DY.Set(i, j, jac.DY.At(i, j)-length*(mid[1]-np[1])/d)
		}
	}
	return jac, nil
}

// solveReduced solves the leading (n-1)x(n-1) block of dw against the first
// n-1 entries of rhs and pads the solution with a trailing zero, respecting
// the fixed-last-weight convention. A singular or non-finite solve returns
// ErrSingularSystem; mere ill-conditioning is tolerated.
func solveReduced(dw *mat.Dense, rhs []float64) ([]float64, error) {
	n, _ := dw.Dims()
	out := make([]float64, n)
	if n <= 1 {
		return out, nil
	}
	m := n - 1
	b := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		b.SetVec(i, rhs[i])
	}
	var x mat.VecDense
	if err := x.SolveVec(dw.Slice(0, m, 0, m), b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, ErrSingularSystem
		}
	}
	for i := 0; i < m; i++ {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSingularSystem
		}
		out[i] = v
	}
	return out, nil
}
