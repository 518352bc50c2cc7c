package sample

import (
	"fmt"
	"slices"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// Series holds the sampled values of one variable and, index for index, the
// importance weight of each value.
type Series struct {
	Values  []float64 `json:"values"`
	Weights []float64 `json:"weights"`
}

func (s Series) clone() Series {
	return Series{Values: slices.Clone(s.Values), Weights: slices.Clone(s.Weights)}
}

// Batch is a set of NSample candidate parameter/state sets drawn for a
// Problem. Every variable of the problem has a Series of length NSample.
//
// A Batch is read-only once generated. Slice and IterSlice produce new,
// independent batches and never modify the receiver, so slices can be
// handed to concurrent consumers.
type Batch struct {
	generator string
	nSample   int
	problem   problem.Problem
	series    []Series // aligned with problem order
}

func newBatch(generator string, p problem.Problem, n int) *Batch {
	series := make([]Series, p.NumVars())
	for i := range series {
		series[i] = Series{Values: make([]float64, n), Weights: make([]float64, n)}
	}
	return &Batch{
		generator: generator,
		nSample:   n,
		problem:   p.Clone(),
		series:    series,
	}
}

// Generator returns the name of the distribution that produced the batch.
func (b *Batch) Generator() string {
	return b.generator
}

// NSample returns the number of candidate sets.
func (b *Batch) NSample() int {
	return b.nSample
}

// Problem returns a copy of the problem the batch was drawn for.
func (b *Batch) Problem() problem.Problem {
	return b.problem.Clone()
}

// Names returns the variable names in problem order.
func (b *Batch) Names() []string {
	return b.problem.Names()
}

// Series returns a copy of the named variable's values and weights.
func (b *Batch) Series(name string) (Series, bool) {
	i, ok := b.problem.Index(name)
	if !ok {
		return Series{}, false
	}
	return b.series[i].clone(), true
}

// Values returns a copy of the sampled values of name, or nil if the batch
// has no such variable.
func (b *Batch) Values(name string) []float64 {
	i, ok := b.problem.Index(name)
	if !ok {
		return nil
	}
	return slices.Clone(b.series[i].Values)
}

// Weights returns a copy of the importance weights of name, or nil if the
// batch has no such variable.
func (b *Batch) Weights(name string) []float64 {
	i, ok := b.problem.Index(name)
	if !ok {
		return nil
	}
	return slices.Clone(b.series[i].Weights)
}

// Set returns the i-th candidate set as a name to value mapping.
func (b *Batch) Set(i int) (map[string]float64, error) {
	if i < 0 || i >= b.nSample {
		return nil, &RangeError{Op: "set", Reason: fmt.Sprintf("index %d outside [0, %d)", i, b.nSample)}
	}
	set := make(map[string]float64, len(b.series))
	for v, s := range b.series {
		set[b.problem.Name(v)] = s.Values[i]
	}
	return set, nil
}

// Weight returns the joint importance weight of the i-th set, the product of
// the per-variable weights.
func (b *Batch) Weight(i int) (float64, error) {
	if i < 0 || i >= b.nSample {
		return 0, &RangeError{Op: "weight", Reason: fmt.Sprintf("index %d outside [0, %d)", i, b.nSample)}
	}
	w := 1.0
	for _, s := range b.series {
		w *= s.Weights[i]
	}
	return w, nil
}

// Slice returns a new batch holding sets [start, end). Generator and problem
// are preserved and the new batch owns copies of the data.
func (b *Batch) Slice(start, end int) (*Batch, error) {
	if end < start {
		return nil, &RangeError{Op: "slice", Reason: fmt.Sprintf("start argument %d must be lower than end argument %d", start, end)}
	}
	if start < 0 {
		return nil, &RangeError{Op: "slice", Reason: fmt.Sprintf("start argument %d must be greater or equal to 0", start)}
	}
	if end > b.nSample {
		return nil, &RangeError{Op: "slice", Reason: fmt.Sprintf("end argument %d must be lower or equal to the sample size %d", end, b.nSample)}
	}

	series := make([]Series, len(b.series))
	for i, s := range b.series {
		series[i] = Series{
			Values:  slices.Clone(s.Values[start:end]),
			Weights: slices.Clone(s.Weights[start:end]),
		}
	}

	return &Batch{
		generator: b.generator,
		nSample:   end - start,
		problem:   b.problem.Clone(),
		series:    series,
	}, nil
}

// Head returns the first end sets, Slice(0, end).
func (b *Batch) Head(end int) (*Batch, error) {
	return b.Slice(0, end)
}

// IterSlice returns an iterator over contiguous slices of by sets. The last
// slice holds the remainder when NSample is not a multiple of by.
func (b *Batch) IterSlice(by int) (*SliceIterator, error) {
	if by < 1 {
		return nil, &RangeError{Op: "iterslice", Reason: fmt.Sprintf("by argument %d must be at least 1", by)}
	}
	if by > b.nSample {
		return nil, &RangeError{Op: "iterslice", Reason: fmt.Sprintf("by argument %d must be lower or equal to the sample size %d", by, b.nSample)}
	}
	return &SliceIterator{src: b, by: by, index: -1}, nil
}

// Concat joins batches drawn for the same problem and generator, in order.
// It is the inverse of IterSlice.
func Concat(parts ...*Batch) (*Batch, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("concat: no batches given")
	}
	first := parts[0]
	total := 0
	for i, p := range parts {
		if p.generator != first.generator || !p.problem.Equal(first.problem) {
			return nil, fmt.Errorf("concat: batch %d was drawn for a different problem or generator", i)
		}
		total += p.nSample
	}

	out := newBatch(first.generator, first.problem, 0)
	for v := range out.series {
		out.series[v].Values = make([]float64, 0, total)
		out.series[v].Weights = make([]float64, 0, total)
		for _, p := range parts {
			out.series[v].Values = append(out.series[v].Values, p.series[v].Values...)
			out.series[v].Weights = append(out.series[v].Weights, p.series[v].Weights...)
		}
	}
	out.nSample = total
	return out, nil
}

// Equal reports whether two batches hold identical values and weights.
func (b *Batch) Equal(o *Batch) bool {
	if b.generator != o.generator || b.nSample != o.nSample || !b.problem.Equal(o.problem) {
		return false
	}
	for i := range b.series {
		if !slices.Equal(b.series[i].Values, o.series[i].Values) ||
			!slices.Equal(b.series[i].Weights, o.series[i].Weights) {
			return false
		}
	}
	return true
}

func (b *Batch) String() string {
	return fmt.Sprintf("Batch{generator: %s, n_sample: %d, names: %v}", b.generator, b.nSample, b.problem.Names())
}
