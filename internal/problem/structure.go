package problem

import (
	"fmt"
	"slices"
	"strings"
)

// BoundSource is the bound-constraint accessor of a hydrological model: it
// names the calibrated parameters (or states) of the model structure and
// reports the bounds configured for each of them.
type BoundSource interface {
	ControlNames(states bool) []string
	BoundConstraint(name string) (low, high float64, err error)
}

// FromBoundSource derives a Problem from a model's bound constraints. With
// states set, the structure's states are used instead of its parameters.
func FromBoundSource(src BoundSource, states bool) (Problem, error) {
	if src == nil {
		return Problem{}, &ConfigError{Reason: "bound source cannot be nil"}
	}

	names := src.ControlNames(states)
	bounds := make([]Bound, len(names))
	for i, name := range names {
		low, high, err := src.BoundConstraint(name)
		if err != nil {
			return Problem{}, fmt.Errorf("failed to read bound constraint of %q: %w", name, err)
		}
		bounds[i] = Bound{Low: low, High: high}
	}

	return New(names, bounds)
}

// Structure is a hydrological model structure together with the default
// bounds of its calibrated parameters and states. Bounds may be overridden
// with WithBound before deriving a Problem.
type Structure struct {
	Name       string
	Parameters []string
	States     []string
	bounds     map[string]Bound
}

const eps = 1e-6

var defaultBounds = map[string]Bound{
	// parameters
	"ci":    {Low: eps, High: 1e2},
	"cp":    {Low: eps, High: 1e3},
	"cft":   {Low: eps, High: 1e3},
	"cst":   {Low: eps, High: 1e4},
	"alpha": {Low: eps, High: 1 - eps},
	"exc":   {Low: -50, High: 50},
	"lr":    {Low: eps, High: 1e3},
	// states
	"hi":  {Low: eps, High: 1 - eps},
	"hp":  {Low: eps, High: 1 - eps},
	"hft": {Low: eps, High: 1 - eps},
	"hst": {Low: eps, High: 1 - eps},
	"hlr": {Low: eps, High: 1e3},
}

var structures = map[string]Structure{
	"gr-a": {
		Name:       "gr-a",
		Parameters: []string{"cp", "cft", "exc", "lr"},
		States:     []string{"hp", "hft", "hlr"},
	},
	"gr-b": {
		Name:       "gr-b",
		Parameters: []string{"ci", "cp", "cft", "exc", "lr"},
		States:     []string{"hi", "hp", "hft", "hlr"},
	},
	"gr-c": {
		Name:       "gr-c",
		Parameters: []string{"ci", "cp", "cft", "cst", "alpha", "exc", "lr"},
		States:     []string{"hi", "hp", "hft", "hst", "hlr"},
	},
	"gr-d": {
		Name:       "gr-d",
		Parameters: []string{"cp", "cft", "exc", "lr"},
		States:     []string{"hp", "hft", "hlr"},
	},
}

// StructureNames lists the known model structures.
func StructureNames() []string {
	names := make([]string, 0, len(structures))
	for name := range structures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupStructure returns the named model structure (case-insensitive) with
// its default bounds.
func LookupStructure(name string) (Structure, error) {
	s, ok := structures[strings.ToLower(name)]
	if !ok {
		return Structure{}, &ConfigError{
			Field:  "structure",
			Reason: fmt.Sprintf("unknown structure %q, choices are %v", name, StructureNames()),
		}
	}
	s.Parameters = slices.Clone(s.Parameters)
	s.States = slices.Clone(s.States)
	s.bounds = make(map[string]Bound, len(s.Parameters)+len(s.States))
	for _, n := range append(slices.Clone(s.Parameters), s.States...) {
		s.bounds[n] = defaultBounds[n]
	}
	return s, nil
}

// WithBound returns a copy of s with the bound of name replaced.
func (s Structure) WithBound(name string, b Bound) (Structure, error) {
	if _, ok := s.bounds[name]; !ok {
		return Structure{}, &ConfigError{
			Field:  "structure",
			Reason: fmt.Sprintf("%q is not a parameter or state of %s", name, s.Name),
		}
	}
	out := s
	out.bounds = make(map[string]Bound, len(s.bounds))
	for k, v := range s.bounds {
		out.bounds[k] = v
	}
	out.bounds[name] = b
	return out, nil
}

// ControlNames implements BoundSource.
func (s Structure) ControlNames(states bool) []string {
	if states {
		return slices.Clone(s.States)
	}
	return slices.Clone(s.Parameters)
}

// BoundConstraint implements BoundSource.
func (s Structure) BoundConstraint(name string) (float64, float64, error) {
	b, ok := s.bounds[name]
	if !ok {
		return 0, 0, fmt.Errorf("no bound configured for %q in structure %s", name, s.Name)
	}
	return b.Low, b.High, nil
}
