package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
)

// FromMap builds a Problem from a definition mapping with the keys num_vars,
// names and bounds. Unknown keys are logged as warnings and ignored.
func FromMap(m map[string]any) (Problem, error) {
	p, warnings, err := Parse(m)
	if err != nil {
		return Problem{}, err
	}
	for _, w := range warnings {
		slog.Warn(w)
	}
	return p, nil
}

// Parse is FromMap without logging: non-fatal findings are returned as
// warning messages instead.
func Parse(m map[string]any) (Problem, []string, error) {
	if m == nil {
		return Problem{}, nil, &ConfigError{Reason: "problem definition must be a mapping"}
	}

	var missing []string
	for _, k := range Keys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Problem{}, nil, &ConfigError{
			Reason: fmt.Sprintf("problem definition is missing required key(s) %v, required keys are %v", missing, Keys),
		}
	}

	var warnings []string
	if unknown := unknownKeys(m); len(unknown) > 0 {
		warnings = append(warnings, fmt.Sprintf("unknown key(s) %v found in the problem definition, choices are %v", unknown, Keys))
	}

	numVars, err := toInt(m[KeyNumVars])
	if err != nil {
		return Problem{}, nil, &ConfigError{Field: KeyNumVars, Reason: err.Error()}
	}
	if numVars <= 0 {
		return Problem{}, nil, &ConfigError{Field: KeyNumVars, Reason: fmt.Sprintf("must be positive, got %d", numVars)}
	}

	names, err := toStrings(m[KeyNames])
	if err != nil {
		return Problem{}, nil, &ConfigError{Field: KeyNames, Reason: err.Error()}
	}

	bounds, err := toBounds(m[KeyBounds])
	if err != nil {
		return Problem{}, nil, &ConfigError{Field: KeyBounds, Reason: err.Error()}
	}

	if len(names) != numVars {
		return Problem{}, nil, &ConfigError{
			Field:  KeyNames,
			Reason: fmt.Sprintf("has %d entries but num_vars is %d", len(names), numVars),
		}
	}
	if len(bounds) != numVars {
		return Problem{}, nil, &ConfigError{
			Field:  KeyBounds,
			Reason: fmt.Sprintf("has %d entries but num_vars is %d", len(bounds), numVars),
		}
	}

	p, err := New(names, bounds)
	if err != nil {
		return Problem{}, nil, err
	}
	return p, warnings, nil
}

// Decode reads a JSON problem definition.
func Decode(r io.Reader) (Problem, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Problem{}, fmt.Errorf("failed to decode problem definition: %w", err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return Problem{}, &ConfigError{Reason: "problem definition must be a JSON object"}
	}
	return FromMap(m)
}

// Load reads a JSON problem definition from path.
func Load(path string) (Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return Problem{}, fmt.Errorf("failed to open problem file: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return Problem{}, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Loaded problem", "path", path, "num_vars", p.NumVars())
	return p, nil
}

// MarshalJSON encodes p in the definition mapping form.
func (p Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}

// UnmarshalJSON decodes and validates a definition mapping.
func (p *Problem) UnmarshalJSON(data []byte) error {
	q, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

func unknownKeys(m map[string]any) []string {
	var unknown []string
	for k := range m {
		if !slices.Contains(Keys, k) {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %s", n)
		}
		return int(i), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be an integer, got %g", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("must be an integer, got %T", v)
}

// ToFloat converts the numeric representations accepted in definition
// mappings to float64.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("must be a float or an integer, got %T", v)
}

func toStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d must be a string, got %T", i, e)
			}
			out[i] = str
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a sequence of strings, got %T", v)
}

func toBounds(v any) ([]Bound, error) {
	switch b := v.(type) {
	case []Bound:
		return append([]Bound(nil), b...), nil
	case [][2]float64:
		out := make([]Bound, len(b))
		for i, pair := range b {
			out[i] = Bound{Low: pair[0], High: pair[1]}
		}
		return out, nil
	case [][]float64:
		out := make([]Bound, len(b))
		for i, pair := range b {
			if len(pair) != 2 {
				return nil, fmt.Errorf("entry %d must be a (low, high) pair, got %d values", i, len(pair))
			}
			out[i] = Bound{Low: pair[0], High: pair[1]}
		}
		return out, nil
	case []any:
		out := make([]Bound, len(b))
		for i, e := range b {
			pair, err := toPair(e)
			if err != nil {
				return nil, fmt.Errorf("entry %d %w", i, err)
			}
			out[i] = pair
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a sequence of (low, high) pairs, got %T", v)
}

func toPair(v any) (Bound, error) {
	var vals []any
	switch p := v.(type) {
	case []any:
		vals = p
	case []float64:
		vals = []any{}
		for _, f := range p {
			vals = append(vals, f)
		}
	default:
		return Bound{}, fmt.Errorf("must be a (low, high) pair, got %T", v)
	}
	if len(vals) != 2 {
		return Bound{}, fmt.Errorf("must be a (low, high) pair, got %d values", len(vals))
	}
	low, err := ToFloat(vals[0])
	if err != nil {
		return Bound{}, fmt.Errorf("low %w", err)
	}
	high, err := ToFloat(vals[1])
	if err != nil {
		return Bound{}, fmt.Errorf("high %w", err)
	}
	return Bound{Low: low, High: high}, nil
}
