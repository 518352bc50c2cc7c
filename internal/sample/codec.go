package sample

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// batchJSON is the persisted form of a Batch.
type batchJSON struct {
	Generator string            `json:"generator"`
	NSample   int               `json:"n_sample"`
	Problem   problem.Problem   `json:"problem"`
	Series    map[string]Series `json:"series"`
}

// MarshalJSON encodes the batch with its problem and one series per variable.
func (b *Batch) MarshalJSON() ([]byte, error) {
	series := make(map[string]Series, len(b.series))
	for i, s := range b.series {
		series[b.problem.Name(i)] = s
	}
	return json.Marshal(batchJSON{
		Generator: b.generator,
		NSample:   b.nSample,
		Problem:   b.problem,
		Series:    series,
	})
}

// UnmarshalJSON decodes a batch and checks its invariants.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var raw batchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if !slices.Contains(Generators, raw.Generator) {
		return fmt.Errorf("invalid batch: unknown generator %q", raw.Generator)
	}
	if raw.NSample < 0 {
		return fmt.Errorf("invalid batch: negative n_sample %d", raw.NSample)
	}

	p := raw.Problem
	if !p.Valid() {
		return fmt.Errorf("invalid batch: missing problem definition")
	}
	series := make([]Series, p.NumVars())
	for i, name := range p.Names() {
		s, ok := raw.Series[name]
		if !ok {
			return fmt.Errorf("invalid batch: missing series for %q", name)
		}
		if len(s.Values) != raw.NSample || len(s.Weights) != raw.NSample {
			return fmt.Errorf("invalid batch: series %q has %d values and %d weights for n_sample %d",
				name, len(s.Values), len(s.Weights), raw.NSample)
		}
		bnd := p.Bound(i)
		for k, v := range s.Values {
			if !bnd.Contains(v) {
				return fmt.Errorf("invalid batch: %s[%d] = %g outside [%g, %g]", name, k, v, bnd.Low, bnd.High)
			}
			if !(s.Weights[k] > 0) {
				return fmt.Errorf("invalid batch: weight of %s[%d] must be positive, got %g", name, k, s.Weights[k])
			}
		}
		if s.Values == nil {
			s.Values = []float64{}
		}
		if s.Weights == nil {
			s.Weights = []float64{}
		}
		series[i] = s
	}
	if len(raw.Series) != p.NumVars() {
		return fmt.Errorf("invalid batch: %d series for %d variables", len(raw.Series), p.NumVars())
	}

	*b = Batch{
		generator: raw.Generator,
		nSample:   raw.NSample,
		problem:   p,
		series:    series,
	}
	return nil
}
