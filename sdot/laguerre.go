package sdot

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// Laguerre computes power-diagram cells of weighted seeds clipped to a domain
// box, with periodic wrapping in the configured axes. Periodicity is handled
// by replicating each seed one period to either side of the box in each
// periodic axis; for query points inside the box the nearest periodic image
// is always among those replicas.
type Laguerre struct {
	Box      orb.Bound
	Periodic Periodicity

	// Newton solve controls, used by Solve.
	MaxIterations int
	Tolerance     float64 // relative to the smallest target area
}

// NewLaguerre returns a tessellation over the given box with default solver
// settings.
func NewLaguerre(box orb.Bound, per Periodicity) *Laguerre {
	return &Laguerre{
		Box:           box,
		Periodic:      per,
		MaxIterations: 60,
		Tolerance:     1e-9,
	}
}

// DefaultGuess returns the cost-transform of the zero potential: for each
// seed, the squared distance from the seed to the box under periodic
// wrapping. The cost is separable, so the transform reduces to a per-axis
// clamp; periodic axes contribute nothing because the box spans one full
// period. The guess is always well-defined but can induce zero-area cells
// when outside seeds share their periodic-axis coordinate.
func (l *Laguerre) DefaultGuess(seeds []orb.Point) []float64 {
	guess := make([]float64, len(seeds))
	for i, z := range seeds {
		gx := axisGap(z[0], l.Box.Min[0], l.Box.Max[0], l.Periodic.X)
		gy := axisGap(z[1], l.Box.Min[1], l.Box.Max[1], l.Periodic.Y)
		guess[i] = gx*gx + gy*gy
	}
	return guess
}

// axisGap is the distance from v to the interval [lo, hi], zero under
// periodicity since the interval then covers the whole circle.
func axisGap(v, lo, hi float64, periodic bool) float64 {
	if periodic {
		return 0
	}
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}

// Areas returns one cell area per seed. A seed's area is the sum over its
// periodic replicas of the polygon each replica wins inside the box.
func (l *Laguerre) Areas(seeds []orb.Point, weights []float64) ([]float64, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if len(weights) != len(seeds) {
		return nil, ErrDimensionMismatch
	}
	reps := l.replicas(seeds)
	areas := make([]float64, len(seeds))
	wMax := floats.Max(weights)
	for ri := range reps {
		c := l.cellFor(ri, reps, weights, wMax)
		areas[reps[ri].seed] += c.area()
	}
	return areas, nil
}

// replica is one periodic image of a seed.
type replica struct {
	seed int
	pos  orb.Point
}

// replicas wraps each seed's periodic coordinates into the box and emits its
// images at offsets {-L, 0, +L} per periodic axis. Images whose winning
// region cannot reach the box (further than half a period away in a periodic
// axis) are dropped.
func (l *Laguerre) replicas(seeds []orb.Point) []replica {
	lx := l.Box.Max[0] - l.Box.Min[0]
	ly := l.Box.Max[1] - l.Box.Min[1]

	xOffsets := []float64{0}
	if l.Periodic.X {
		xOffsets = []float64{-lx, 0, lx}
	}
	yOffsets := []float64{0}
	if l.Periodic.Y {
		yOffsets = []float64{-ly, 0, ly}
	}

	reps := make([]replica, 0, len(seeds)*len(xOffsets)*len(yOffsets))
	for i, z := range seeds {
		base := orb.Point{
			wrapCoord(z[0], l.Box.Min[0], lx, l.Periodic.X),
			wrapCoord(z[1], l.Box.Min[1], ly, l.Periodic.Y),
		}
		for _, ox := range xOffsets {
			for _, oy := range yOffsets {
				p := orb.Point{base[0] + ox, base[1] + oy}
				if l.Periodic.X && axisGap(p[0], l.Box.Min[0], l.Box.Max[0], false) > lx/2 {
					continue
				}
				if l.Periodic.Y && axisGap(p[1], l.Box.Min[1], l.Box.Max[1], false) > ly/2 {
					continue
				}
				reps = append(reps, replica{seed: i, pos: p})
			}
		}
	}
	return reps
}

func wrapCoord(v, lo, span float64, periodic bool) float64 {
	if !periodic || span <= 0 {
		return v
	}
	w := math.Mod(v-lo, span)
	if w < 0 {
		w += span
	}
	return lo + w
}

// cellFor clips the box against the bisectors between replica ri and every
// other replica, nearest first. Once the remaining polygon is provably
// beyond the reach of all farther bisectors the loop stops early.
func (l *Laguerre) cellFor(ri int, reps []replica, weights []float64, wMax float64) cell {
	g := reps[ri].pos
	wi := weights[reps[ri].seed]

	type neighbor struct {
		idx int
		d2  float64
	}
	neigh := make([]neighbor, 0, len(reps)-1)
	for q := range reps {
		if q == ri {
			continue
		}
		neigh = append(neigh, neighbor{idx: q, d2: dist2(reps[q].pos, g)})
	}
	sort.Slice(neigh, func(a, b int) bool { return neigh[a].d2 < neigh[b].d2 })

	c := boxCell(l.Box)
	r2 := c.maxDist2(g)
	for _, nb := range neigh {
		d := math.Sqrt(nb.d2)
		r := math.Sqrt(r2)
		// A bisector at distance d cannot cut the polygon once every vertex v
		// satisfies |v-z'|^2 - |v-g|^2 > w' - wi for every remaining neighbor.
		// The left side is at least (d-r)^2 - r^2, so it suffices that this
		// covers the largest weight advantage any neighbor holds over wi.
		if d >= 2*r && (d-r)*(d-r)-r2 >= wMax-wi {
			break
		}
		z := reps[nb.idx].pos
		wj := weights[reps[nb.idx].seed]
		ax := 2 * (z[0] - g[0])
		ay := 2 * (z[1] - g[1])
		rhs := z[0]*z[0] + z[1]*z[1] - g[0]*g[0] - g[1]*g[1] + wi - wj
		if ax == 0 && ay == 0 {
			// Coincident generators: the one with the larger weight (lowest
			// replica index on ties) takes the region.
			if rhs < 0 || (rhs == 0 && nb.idx < ri) {
				return cell{}
			}
			continue
		}
		c = c.clip(ax, ay, rhs, nb.idx)
		if c.empty() {
			return cell{}
		}
		r2 = c.maxDist2(g)
	}
	return c
}
