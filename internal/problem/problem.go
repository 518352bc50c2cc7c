// Package problem describes the bounded variable set explored during
// calibration: which model parameters or states are sampled and the interval
// each one may take.
package problem

import (
	"fmt"
	"math"
)

// Recognised keys of a problem definition mapping.
const (
	KeyNumVars = "num_vars"
	KeyNames   = "names"
	KeyBounds  = "bounds"
)

// Keys lists the recognised keys in canonical order.
var Keys = []string{KeyNumVars, KeyNames, KeyBounds}

// Bound is the closed interval [Low, High] of one variable.
type Bound struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Width returns High - Low.
func (b Bound) Width() float64 {
	return b.High - b.Low
}

// Mid returns the centre of the interval.
func (b Bound) Mid() float64 {
	return (b.Low + b.High) / 2
}

// Contains reports whether v lies inside the closed interval.
func (b Bound) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Problem is an immutable, validated description of the explored variables.
// The zero value is not valid; build one with New, FromMap or FromBoundSource.
type Problem struct {
	names  []string
	bounds []Bound
	index  map[string]int
}

// New validates names and bounds and returns a Problem holding copies of both.
func New(names []string, bounds []Bound) (Problem, error) {
	if len(names) == 0 {
		return Problem{}, &ConfigError{Field: KeyNames, Reason: "must contain at least one variable"}
	}
	if len(names) != len(bounds) {
		return Problem{}, &ConfigError{
			Field:  KeyBounds,
			Reason: fmt.Sprintf("has %d entries for %d names", len(bounds), len(names)),
		}
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return Problem{}, &ConfigError{Field: KeyNames, Reason: fmt.Sprintf("entry %d is empty", i)}
		}
		if _, dup := index[name]; dup {
			return Problem{}, &ConfigError{Field: KeyNames, Reason: fmt.Sprintf("duplicate name %q", name)}
		}
		index[name] = i

		b := bounds[i]
		if math.IsNaN(b.Low) || math.IsNaN(b.High) || math.IsInf(b.Low, 0) || math.IsInf(b.High, 0) {
			return Problem{}, &ConfigError{Field: KeyBounds, Reason: fmt.Sprintf("bound of %q must be finite", name)}
		}
		if b.Low >= b.High {
			return Problem{}, &ConfigError{
				Field:  KeyBounds,
				Reason: fmt.Sprintf("bound of %q must satisfy low < high, got [%g, %g]", name, b.Low, b.High),
			}
		}
	}

	return Problem{
		names:  append([]string(nil), names...),
		bounds: append([]Bound(nil), bounds...),
		index:  index,
	}, nil
}

// NumVars returns the number of variables.
func (p Problem) NumVars() int {
	return len(p.names)
}

// Names returns the variable names in declared order.
func (p Problem) Names() []string {
	return append([]string(nil), p.names...)
}

// Bounds returns the bounds in declared order.
func (p Problem) Bounds() []Bound {
	return append([]Bound(nil), p.bounds...)
}

// Name returns the i-th variable name.
func (p Problem) Name(i int) string {
	return p.names[i]
}

// Bound returns the i-th variable bound.
func (p Problem) Bound(i int) Bound {
	return p.bounds[i]
}

// Index returns the position of name in the declared order.
func (p Problem) Index(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// Lookup returns the bound of the named variable.
func (p Problem) Lookup(name string) (Bound, bool) {
	i, ok := p.index[name]
	if !ok {
		return Bound{}, false
	}
	return p.bounds[i], true
}

// Midpoints maps every variable to the centre of its bounds.
func (p Problem) Midpoints() map[string]float64 {
	mid := make(map[string]float64, len(p.names))
	for i, name := range p.names {
		mid[name] = p.bounds[i].Mid()
	}
	return mid
}

// Valid reports whether p was built by one of the constructors.
func (p Problem) Valid() bool {
	return len(p.names) > 0 && len(p.names) == len(p.bounds)
}

// Clone returns a deep copy of p.
func (p Problem) Clone() Problem {
	index := make(map[string]int, len(p.index))
	for k, v := range p.index {
		index[k] = v
	}
	return Problem{
		names:  append([]string(nil), p.names...),
		bounds: append([]Bound(nil), p.bounds...),
		index:  index,
	}
}

// Equal reports whether p and q describe the same variables and bounds in the
// same order.
func (p Problem) Equal(q Problem) bool {
	if len(p.names) != len(q.names) {
		return false
	}
	for i := range p.names {
		if p.names[i] != q.names[i] || p.bounds[i] != q.bounds[i] {
			return false
		}
	}
	return true
}

// ToMap renders p as a definition mapping accepted by FromMap.
func (p Problem) ToMap() map[string]any {
	bounds := make([][]float64, len(p.bounds))
	for i, b := range p.bounds {
		bounds[i] = []float64{b.Low, b.High}
	}
	return map[string]any{
		KeyNumVars: len(p.names),
		KeyNames:   p.Names(),
		KeyBounds:  bounds,
	}
}

func (p Problem) String() string {
	return fmt.Sprintf("Problem{num_vars: %d, names: %v, bounds: %v}", len(p.names), p.names, p.bounds)
}
