package sdot

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// Problem is a YAML-configurable initialization problem: the domain box, the
// periodicity flags, and either an explicit seed list or a seeded random
// scatter.
type Problem struct {
	Box      BoxConfig      `yaml:"box"`
	Periodic PeriodicConfig `yaml:"periodic"`

	// Exactly one of Seeds and Random must be set.
	Seeds  []orb.Point  `yaml:"seeds,omitempty"`
	Random *ScatterSpec `yaml:"random,omitempty"`

	Targets     []float64 `yaml:"targets,omitempty"`     // default: uniform
	Threshold   float64   `yaml:"threshold,omitempty"`   // default: derived
	Damping     float64   `yaml:"damping,omitempty"`     // default 0.1
	MaxAttempts int       `yaml:"maxAttempts,omitempty"` // default 30
}

// BoxConfig is the axis-aligned domain rectangle.
type BoxConfig struct {
	XMin float64 `yaml:"xmin"`
	YMin float64 `yaml:"ymin"`
	XMax float64 `yaml:"xmax"`
	YMax float64 `yaml:"ymax"`
}

// PeriodicConfig selects the periodic axes.
type PeriodicConfig struct {
	X bool `yaml:"x"`
	Y bool `yaml:"y"`
}

// ScatterSpec asks for Count seeds drawn uniformly over the box using the
// given RNG seed, so runs are reproducible.
type ScatterSpec struct {
	Count int   `yaml:"count"`
	Seed  int64 `yaml:"seed"`
}

// LoadProblem reads and validates a YAML problem file.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("problem file not found: %s", path)
		}
		return nil, fmt.Errorf("reading problem file: %w", err)
	}

	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing problem YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the structural constraints a problem must satisfy before it
// can be handed to InitialWeights.
func (p *Problem) Validate() error {
	if p.Box.XMax <= p.Box.XMin || p.Box.YMax <= p.Box.YMin {
		return fmt.Errorf("box must have positive extent in both axes")
	}
	if !p.Periodic.X && !p.Periodic.Y {
		return fmt.Errorf("at least one axis must be periodic")
	}
	hasSeeds := len(p.Seeds) > 0
	hasRandom := p.Random != nil
	if hasSeeds == hasRandom {
		return fmt.Errorf("exactly one of seeds and random must be given")
	}
	if hasRandom && p.Random.Count <= 0 {
		return fmt.Errorf("random.count must be positive")
	}
	if len(p.Targets) > 0 && len(p.Targets) != p.seedCount() {
		return fmt.Errorf("targets length %d does not match %d seeds", len(p.Targets), p.seedCount())
	}
	return nil
}

func (p *Problem) seedCount() int {
	if p.Random != nil {
		return p.Random.Count
	}
	return len(p.Seeds)
}

// Bound returns the domain box as an orb.Bound.
func (p *Problem) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{p.Box.XMin, p.Box.YMin},
		Max: orb.Point{p.Box.XMax, p.Box.YMax},
	}
}

// Periodicity returns the periodic-axis flags.
func (p *Problem) Periodicity() Periodicity {
	return Periodicity{X: p.Periodic.X, Y: p.Periodic.Y}
}

// BuildSeeds materializes the seed set, drawing the random scatter when one
// is configured.
func (p *Problem) BuildSeeds() []orb.Point {
	if p.Random == nil {
		seeds := make([]orb.Point, len(p.Seeds))
		copy(seeds, p.Seeds)
		return seeds
	}
	rng := rand.New(rand.NewSource(p.Random.Seed))
	return ScatterSeeds(p.Bound(), p.Random.Count, rng)
}

// InitConfig translates the tuning fields into an InitConfig. The RNG is
// seeded from the scatter seed when one is configured, keeping whole runs
// reproducible from a single value.
func (p *Problem) InitConfig() InitConfig {
	cfg := DefaultInitConfig()
	if p.Damping > 0 {
		cfg.Damping = p.Damping
	}
	if p.Threshold > 0 {
		cfg.AreaThreshold = p.Threshold
	}
	if p.MaxAttempts > 0 {
		cfg.MaxAttempts = p.MaxAttempts
	}
	if p.Random != nil {
		cfg.RNG = rand.New(rand.NewSource(p.Random.Seed + 1))
	}
	return cfg
}

// ScatterSeeds draws count points uniformly over the box.
func ScatterSeeds(box orb.Bound, count int, rng *rand.Rand) []orb.Point {
	seeds := make([]orb.Point, count)
	for i := range seeds {
		seeds[i] = orb.Point{
			box.Min[0] + rng.Float64()*(box.Max[0]-box.Min[0]),
			box.Min[1] + rng.Float64()*(box.Max[1]-box.Min[1]),
		}
	}
	return seeds
}
