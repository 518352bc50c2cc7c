// Package sample draws reproducible batches of candidate parameter/state
// sets for a problem, each value carrying its importance weight (the density
// of the generating distribution at that value).
package sample

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// Generator names.
const (
	Uniform  = "uniform"
	Normal   = "normal"
	Gaussian = "gaussian"
)

// Generators lists the accepted generator names.
var Generators = []string{Uniform, Normal, Gaussian}

const (
	// DefaultN is the batch size used when Options.N is zero.
	DefaultN = 1000

	// DefaultCoefStd gives std = (high - low) / 3 for the normal generator.
	DefaultCoefStd = 3.0

	// maxRejections bounds the redraws of a truncated normal value that falls
	// outside its interval through rounding.
	maxRejections = 1000
)

// Options configures Generate. The zero value draws DefaultN uniform sets
// from a fresh random stream.
type Options struct {
	// Generator is uniform, normal or gaussian (case-insensitive).
	// Empty means uniform.
	Generator string

	// N is the number of sets. Zero means DefaultN.
	N int

	// RandomState seeds the stream. Nil draws from a fresh, independently
	// seeded stream, so unseeded output is not reproducible.
	RandomState *uint64

	// Mean overrides the per-variable mean of the normal generator.
	// Variables without an entry, or with a nil entry, use the midpoint of
	// their bounds. Values must be numeric.
	Mean map[string]any

	// CoefStd sets std = (high - low) / CoefStd. Nil means DefaultCoefStd.
	CoefStd *float64
}

// Seed returns a pointer to s, for Options.RandomState.
func Seed(s uint64) *uint64 {
	return &s
}

// Float returns a pointer to f, for Options.CoefStd.
func Float(f float64) *float64 {
	return &f
}

// Generate draws a batch for p. With a RandomState, the same problem,
// generator and N always give bit-identical output.
func Generate(p problem.Problem, opts Options) (*Batch, error) {
	var src rand.Source
	if opts.RandomState != nil {
		src = NewSource(*opts.RandomState)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return GenerateWith(p, opts, src)
}

// NewSource returns the deterministic stream Generate uses for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// GenerateWith draws a batch for p from an explicit random stream.
// Options.RandomState is ignored. Variables are drawn in problem order.
func GenerateWith(p problem.Problem, opts Options, src rand.Source) (*Batch, error) {
	gen, n, err := standardize(p, &opts)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &problem.ConfigError{Field: "random_state", Reason: "random stream cannot be nil"}
	}

	b := newBatch(gen, p, n)

	switch gen {
	case Uniform:
		if len(opts.Mean) > 0 {
			slog.Debug("Mean is ignored by the uniform generator")
		}
		for i := range p.NumVars() {
			bnd := p.Bound(i)
			dist := distuv.Uniform{Min: bnd.Low, Max: bnd.High, Src: src}
			w := 1 / bnd.Width()
			s := b.series[i]
			for k := range n {
				s.Values[k] = dist.Rand()
				s.Weights[k] = w
			}
		}

	case Normal, Gaussian:
		means, err := resolveMeans(p, opts.Mean)
		if err != nil {
			return nil, err
		}
		coef := DefaultCoefStd
		if opts.CoefStd != nil {
			coef = *opts.CoefStd
		}
		for i := range p.NumVars() {
			bnd := p.Bound(i)
			tn, err := NewTruncatedNormal(means[i], bnd.Width()/coef, bnd.Low, bnd.High, src)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", p.Name(i), err)
			}
			s := b.series[i]
			for k := range n {
				x, err := tn.Rand()
				if err != nil {
					return nil, fmt.Errorf("variable %q: %w", p.Name(i), err)
				}
				s.Values[k] = x
				s.Weights[k] = tn.Prob(x)
			}
		}
	}

	slog.Debug("Generated samples", "generator", gen, "n_sample", n, "num_vars", p.NumVars())
	return b, nil
}

// standardize validates opts against p and returns the canonical generator
// name and batch size.
func standardize(p problem.Problem, opts *Options) (string, int, error) {
	if !p.Valid() {
		return "", 0, &problem.ConfigError{Reason: "problem must be built with problem.New, FromMap or FromBoundSource"}
	}

	gen := strings.ToLower(opts.Generator)
	if gen == "" {
		gen = Uniform
	}
	if !slices.Contains(Generators, gen) {
		return "", 0, &problem.ConfigError{
			Field:  "generator",
			Reason: fmt.Sprintf("unknown generator %q, choices are %v", opts.Generator, Generators),
		}
	}

	n := opts.N
	if n == 0 {
		n = DefaultN
	}
	if n < 0 {
		return "", 0, &problem.ConfigError{Field: "n", Reason: fmt.Sprintf("must be positive, got %d", n)}
	}

	if opts.CoefStd != nil {
		c := *opts.CoefStd
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return "", 0, &problem.ConfigError{Field: "coef_std", Reason: fmt.Sprintf("must be a positive finite number, got %g", c)}
		}
	}

	return gen, n, nil
}

// resolveMeans returns the normal generator mean of every variable in
// problem order.
func resolveMeans(p problem.Problem, user map[string]any) ([]float64, error) {
	means := make([]float64, p.NumVars())
	for i := range means {
		means[i] = p.Bound(i).Mid()
	}

	keys := make([]string, 0, len(user))
	for k := range user {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, name := range keys {
		v := user[name]
		if v == nil {
			continue
		}
		m, err := problem.ToFloat(v)
		if err != nil {
			return nil, &problem.ConfigError{Field: "mean", Reason: fmt.Sprintf("value of %q %v", name, err)}
		}
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, &problem.ConfigError{Field: "mean", Reason: fmt.Sprintf("value of %q must be finite", name)}
		}
		i, ok := p.Index(name)
		if !ok {
			slog.Warn("Mean key does not match any name in the problem definition",
				"key", name, "names", p.Names())
			continue
		}
		means[i] = m
	}
	return means, nil
}
