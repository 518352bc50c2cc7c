package search

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter runs the mayfly metaheuristic as a Searcher.
//
// The library takes one scalar bound for all dimensions, so the search runs
// in the unit cube and positions are mapped affinely onto each variable's
// own [lower, upper].
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly searcher. popSize must be at least 20.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run implements Searcher.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	scale := func(u []float64) []float64 {
		return fromUnit(u, lower, upper)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(u []float64) float64 {
		return eval(scale(u))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed, returning box centre",
			"error", err,
			"dim", dim,
		)
		mid := make([]float64, dim)
		for i := range mid {
			mid[i] = 0.5
		}
		x := scale(mid)
		return x, eval(x)
	}

	return scale(result.GlobalBest.Position), result.GlobalBest.Cost
}

// fromUnit maps u in [0,1]^n onto [lower, upper], clamping stray coordinates.
func fromUnit(u, lower, upper []float64) []float64 {
	x := make([]float64, len(u))
	for i, v := range u {
		switch {
		case v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		x[i] = lower[i] + v*(upper[i]-lower[i])
	}
	return x
}
