// Package search calibrates a problem's parameters with a derivative-free
// global optimizer bounded by the problem's per-variable bounds.
package search

import (
	"log/slog"
	"time"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// Searcher is a bounded global minimizer.
type Searcher interface {
	// Run minimizes eval over the box [lower, upper] of dimension dim and
	// returns the best position found with its cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}

// Result is the outcome of Calibrate.
type Result struct {
	Set         map[string]float64
	Cost        float64
	Evaluations int
	Duration    time.Duration
}

// Calibrate minimizes cost over the box defined by p's bounds. The cost
// receives parameter sets keyed by variable name.
func Calibrate(p problem.Problem, s Searcher, cost func(map[string]float64) float64) Result {
	names := p.Names()
	bounds := p.Bounds()
	lower := make([]float64, len(bounds))
	upper := make([]float64, len(bounds))
	for i, b := range bounds {
		lower[i], upper[i] = b.Low, b.High
	}

	evals := 0
	eval := func(x []float64) float64 {
		evals++
		return cost(toSet(names, x))
	}

	start := time.Now()
	best, c := s.Run(eval, lower, upper, len(names))
	elapsed := time.Since(start)

	slog.Info("Calibration completed",
		"num_vars", len(names),
		"cost", c,
		"evaluations", evals,
		"duration", elapsed,
	)

	return Result{Set: toSet(names, best), Cost: c, Evaluations: evals, Duration: elapsed}
}

func toSet(names []string, x []float64) map[string]float64 {
	set := make(map[string]float64, len(names))
	for i, name := range names {
		set[name] = x[i]
	}
	return set
}
