package sdot

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// boxEdge labels polygon edges that lie on the domain boundary rather than on
// a bisector. Box edges carry no weight or seed sensitivity.
const boxEdge = -1

// cell is a convex polygon with per-edge provenance. labels[k] identifies the
// replica whose bisector produced the edge ending at verts[k] (the edge from
// verts[k-1] to verts[k]), or boxEdge.
type cell struct {
	verts  []orb.Point
	labels []int
}

// boxCell returns the full domain box, counter-clockwise, all edges labeled
// as boundary.
func boxCell(b orb.Bound) cell {
	return cell{
		verts: []orb.Point{
			{b.Min[0], b.Min[1]},
			{b.Max[0], b.Min[1]},
			{b.Max[0], b.Max[1]},
			{b.Min[0], b.Max[1]},
		},
		labels: []int{boxEdge, boxEdge, boxEdge, boxEdge},
	}
}

func (c *cell) push(v orb.Point, label int) {
	c.verts = append(c.verts, v)
	c.labels = append(c.labels, label)
}

func (c cell) empty() bool { return len(c.verts) < 3 }

// clip intersects the cell with the half-plane ax*x + ay*y <= rhs. Edges cut
// into existence by the clip line are labeled with the given replica index.
func (c cell) clip(ax, ay, rhs float64, label int) cell {
	n := len(c.verts)
	if n == 0 {
		return c
	}
	side := make([]float64, n)
	anyOut := false
	for i, v := range c.verts {
		side[i] = ax*v[0] + ay*v[1] - rhs
		if side[i] > 0 {
			anyOut = true
		}
	}
	if !anyOut {
		return c
	}

	var out cell
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		si, sj := side[i], side[j]
		// The incoming label of vertex j is the label of edge i -> j.
		incoming := c.labels[j]
		switch {
		case si <= 0 && sj <= 0:
			out.push(c.verts[j], incoming)
		case si <= 0 && sj > 0:
			t := si / (si - sj)
			out.push(lerp(c.verts[i], c.verts[j], t), incoming)
		case si > 0 && sj <= 0:
			t := si / (si - sj)
			// Re-entry: the edge arriving here runs along the clip line.
			out.push(lerp(c.verts[i], c.verts[j], t), label)
			out.push(c.verts[j], incoming)
		}
	}
	if out.empty() {
		return cell{}
	}
	return out
}

// area returns the polygon area of the cell.
func (c cell) area() float64 {
	if c.empty() {
		return 0
	}
	ring := make(orb.Ring, 0, len(c.verts)+1)
	ring = append(ring, c.verts...)
	ring = append(ring, c.verts[0])
	return math.Abs(planar.Area(ring))
}

// maxDist2 returns the largest squared distance from p to a vertex.
func (c cell) maxDist2(p orb.Point) float64 {
	max := 0.0
	for _, v := range c.verts {
		if d := dist2(v, p); d > max {
			max = d
		}
	}
	return max
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
}

func dist2(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
