package run

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/hydrocal/internal/sample"
)

// Summary describes the distribution of the finite costs of a run.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`

	// Failed counts NaN and infinite costs.
	Failed int `json:"failed"`
}

// Summary computes statistics over the finite costs.
func (r *Result) Summary() Summary {
	finite := make([]float64, 0, len(r.Costs))
	for _, c := range r.Costs {
		if !math.IsNaN(c) && !math.IsInf(c, 0) {
			finite = append(finite, c)
		}
	}

	s := Summary{Count: len(finite), Failed: len(r.Costs) - len(finite)}
	if len(finite) == 0 {
		s.Mean, s.StdDev, s.Min, s.Median, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) == 1 {
		s.StdDev = 0
	}
	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)

	sorted := slices.Clone(finite)
	slices.Sort(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// BestSet returns the parameter set with the lowest cost.
func (r *Result) BestSet(b *sample.Batch) (map[string]float64, error) {
	if len(r.Costs) != b.NSample() {
		return nil, fmt.Errorf("result has %d costs for a batch of %d sets", len(r.Costs), b.NSample())
	}
	if r.Best < 0 {
		return nil, fmt.Errorf("no finite cost in result")
	}
	return b.Set(r.Best)
}

// UniformMean estimates the mean cost under the uniform distribution over
// the problem bounds. Each cost is weighted by the inverse of the density
// it was drawn with and the weights are self-normalised, so batches from
// either generator estimate the same quantity. Non-finite costs are
// skipped.
func (r *Result) UniformMean(b *sample.Batch) (float64, error) {
	if len(r.Costs) != b.NSample() {
		return 0, fmt.Errorf("result has %d costs for a batch of %d sets", len(r.Costs), b.NSample())
	}

	var xs, ws []float64
	for i, c := range r.Costs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		w, err := b.Weight(i)
		if err != nil {
			return 0, err
		}
		xs = append(xs, c)
		ws = append(ws, 1/w)
	}
	if len(xs) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(xs, ws), nil
}
