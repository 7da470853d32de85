package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/CharliePEgan/SG-Eady-slice/sdot"
)

// Summary is the JSON report for one initialization run.
type Summary struct {
	Seeds     int       `json:"seeds"`
	PeriodicX bool      `json:"periodicX"`
	PeriodicY bool      `json:"periodicY"`
	Perturbed bool      `json:"perturbed"`
	Attempts  int       `json:"attempts"`
	MinArea   float64   `json:"minArea"`
	Threshold float64   `json:"threshold"`
	TotalArea float64   `json:"totalArea"`
	ElapsedMS int64     `json:"elapsedMs"`
	Weights   []float64 `json:"weights,omitempty"`
	Areas     []float64 `json:"areas,omitempty"`
}

// run loads a problem file, computes validated initial weights, and builds
// the run summary.
func run(configPath string, verbose bool) (*Summary, error) {
	problem, err := sdot.LoadProblem(configPath)
	if err != nil {
		return nil, err
	}

	seeds := problem.BuildSeeds()
	log.Printf("Loaded problem: %d seeds, periodic x=%v y=%v",
		len(seeds), problem.Periodic.X, problem.Periodic.Y)

	start := time.Now()
	res, err := sdot.InitialWeights(problem.Bound(), seeds, problem.Targets, problem.Periodicity(), problem.InitConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing weights: %w", err)
	}
	elapsed := time.Since(start)

	if res.Perturbed {
		log.Printf("Perturbation-correction loop converged after %d attempt(s)", res.Attempts)
	} else {
		log.Printf("Default guess accepted, no perturbation needed")
	}
	log.Printf("Minimum cell area %.3e (threshold %.3e), elapsed %s",
		res.MinArea, res.Threshold, elapsed.Round(time.Millisecond))

	total := 0.0
	for _, a := range res.Areas {
		total += a
	}

	s := &Summary{
		Seeds:     len(seeds),
		PeriodicX: problem.Periodic.X,
		PeriodicY: problem.Periodic.Y,
		Perturbed: res.Perturbed,
		Attempts:  res.Attempts,
		MinArea:   res.MinArea,
		Threshold: res.Threshold,
		TotalArea: total,
		ElapsedMS: elapsed.Milliseconds(),
	}
	if verbose {
		s.Weights = res.Weights
		s.Areas = res.Areas
	}
	return s, nil
}

// writeSummary encodes the summary as indented JSON.
func writeSummary(w io.Writer, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
