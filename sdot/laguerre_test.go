package sdot

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
)

func periodicX() Periodicity { return Periodicity{X: true} }

func scatter(box orb.Bound, n int, seed int64) []orb.Point {
	return ScatterSeeds(box, n, rand.New(rand.NewSource(seed)))
}

func TestDefaultGuess_OutsideSeeds(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	seeds := []orb.Point{{0.5, 1.5}, {0.5, 2.0}, {0.3, 0.7}}

	guess := l.DefaultGuess(seeds)

	want := []float64{0.25, 1.0, 0}
	for i, w := range want {
		if math.Abs(guess[i]-w) > 1e-12 {
			t.Errorf("guess[%d] = %f, want %f", i, guess[i], w)
		}
	}
}

func TestDefaultGuess_PeriodicAxisIgnored(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	// Far outside in x, which wraps: distance to the box is zero.
	guess := l.DefaultGuess([]orb.Point{{7.3, 0.5}})
	if guess[0] != 0 {
		t.Errorf("guess for periodic-axis offset seed = %f, want 0", guess[0])
	}
}

func TestAreas_SingleSeedCoversBox(t *testing.T) {
	box := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}
	l := NewLaguerre(box, periodicX())

	areas, err := l.Areas([]orb.Point{{0.4, 0.6}}, []float64{0})
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	if math.Abs(areas[0]-2) > 1e-12 {
		t.Errorf("single-seed area = %f, want 2", areas[0])
	}
}

func TestAreas_PartitionBox(t *testing.T) {
	box := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1.5, 1}}
	l := NewLaguerre(box, periodicX())
	seeds := scatter(box, 40, 99)
	weights := make([]float64, len(seeds))

	areas, err := l.Areas(seeds, weights)
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	sum := 0.0
	for i, a := range areas {
		if a <= 0 {
			t.Errorf("cell %d has non-positive area %f", i, a)
		}
		sum += a
	}
	if math.Abs(sum-1.5) > 1e-9 {
		t.Errorf("areas sum to %f, want 1.5", sum)
	}
}

func TestAreas_WeightShiftInvariance(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	seeds := scatter(unitBox(), 15, 4)
	rng := rand.New(rand.NewSource(5))
	weights := make([]float64, len(seeds))
	shifted := make([]float64, len(seeds))
	for i := range weights {
		weights[i] = 0.05 * rng.Float64()
		shifted[i] = weights[i] + 3.7
	}

	a, err := l.Areas(seeds, weights)
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	b, err := l.Areas(seeds, shifted)
	if err != nil {
		t.Fatalf("Areas shifted: %v", err)
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Errorf("cell %d area changed under uniform weight shift: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestAreas_PeriodicWrap(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	// Equidistant around the periodic seam: the bisectors sit at x=0.3 and
	// x=0.8, splitting the box evenly.
	seeds := []orb.Point{{0.05, 0.5}, {0.55, 0.5}}

	areas, err := l.Areas(seeds, []float64{0, 0})
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	for i, a := range areas {
		if math.Abs(a-0.5) > 1e-9 {
			t.Errorf("wrapped cell %d area = %f, want 0.5", i, a)
		}
	}
}

func TestAreas_SeedOutsideBoxWrapsIn(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	// Same configuration as TestAreas_PeriodicWrap with the first seed
	// shifted by two whole periods.
	seeds := []orb.Point{{2.05, 0.5}, {0.55, 0.5}}

	areas, err := l.Areas(seeds, []float64{0, 0})
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	for i, a := range areas {
		if math.Abs(a-0.5) > 1e-9 {
			t.Errorf("cell %d area = %f, want 0.5", i, a)
		}
	}
}

func TestAreas_AlignedOutsideSeedsDegenerate(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	seeds := []orb.Point{{0.5, 1.5}, {0.5, 2.0}}

	guess := l.DefaultGuess(seeds)
	areas, err := l.Areas(seeds, guess)
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	// The guess pins the bisector exactly onto the top box edge: the farther
	// seed's cell collapses.
	if areas[1] > 1e-12 {
		t.Errorf("far seed cell area = %g, want 0", areas[1])
	}
	if math.Abs(areas[0]-1) > 1e-9 {
		t.Errorf("near seed cell area = %f, want 1", areas[0])
	}
}

// A distant seed with a large weight still cuts the near seed's cell: the
// early-exit bound must account for the neighbor's weight advantage. With the
// aligned pair below the bisector sits at y = 20.75/21, so the far seed keeps
// a thin strip at the top and the two cells still partition the box.
func TestAreas_FarHeavyWeightSeed(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	seeds := []orb.Point{{0.5, 0.5}, {0.5, 11}}

	areas, err := l.Areas(seeds, []float64{0, 100})
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	cut := 20.75 / 21
	if math.Abs(areas[0]-cut) > 1e-9 {
		t.Errorf("near cell area = %f, want %f", areas[0], cut)
	}
	if math.Abs(areas[1]-(1-cut)) > 1e-9 {
		t.Errorf("far cell area = %f, want %f", areas[1], 1-cut)
	}
	if sum := areas[0] + areas[1]; math.Abs(sum-1) > 1e-9 {
		t.Errorf("areas sum to %f, want 1", sum)
	}
}

func TestAreas_BothAxesPeriodic(t *testing.T) {
	l := NewLaguerre(unitBox(), Periodicity{X: true, Y: true})
	seeds := scatter(unitBox(), 9, 11)

	areas, err := l.Areas(seeds, make([]float64, 9))
	if err != nil {
		t.Fatalf("Areas: %v", err)
	}
	sum := 0.0
	for _, a := range areas {
		sum += a
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("areas sum to %f, want 1", sum)
	}
}

func TestAreas_DimensionMismatch(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	_, err := l.Areas([]orb.Point{{0.5, 0.5}}, []float64{0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestAreas_NoSeeds(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	_, err := l.Areas(nil, nil)
	if !errors.Is(err, ErrNoSeeds) {
		t.Errorf("err = %v, want ErrNoSeeds", err)
	}
}

func TestReplicas_DropFarImages(t *testing.T) {
	l := NewLaguerre(unitBox(), periodicX())
	// The image more than half a period from the box cannot win territory
	// inside it and is dropped; the nearer image stays.
	reps := l.replicas([]orb.Point{{0.4, 0.5}})
	if len(reps) != 2 {
		t.Errorf("got %d replicas, want 2", len(reps))
	}

	// A centered seed sits exactly half a period from both images, which is
	// the keep boundary.
	reps = l.replicas([]orb.Point{{0.5, 0.5}})
	if len(reps) != 3 {
		t.Errorf("got %d replicas for a centered seed, want 3", len(reps))
	}
}

func TestUniformTargets(t *testing.T) {
	box := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}
	targets := UniformTargets(box, 4)
	for i, tg := range targets {
		if math.Abs(tg-0.5) > 1e-12 {
			t.Errorf("targets[%d] = %f, want 0.5", i, tg)
		}
	}
}
