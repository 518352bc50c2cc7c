package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cwbudde/hydrocal/internal/problem"
)

// problemFlags selects the explored variables: a problem file, or a model
// structure with optional bound overrides.
type problemFlags struct {
	file      string
	structure string
	states    bool
	bounds    []string
}

func (f *problemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "problem", "", "Problem definition file (JSON with num_vars, names, bounds)")
	fs.StringVar(&f.structure, "structure", "gr-a", fmt.Sprintf("Model structure %v, used when --problem is empty", problem.StructureNames()))
	fs.BoolVar(&f.states, "states", false, "Explore the structure's states instead of its parameters")
	fs.StringArrayVar(&f.bounds, "bound", nil, "Override a structure bound, name=low:high (repeatable)")
}

// load builds the problem and returns it with a description of its source.
func (f *problemFlags) load() (problem.Problem, string, error) {
	if f.file != "" {
		if len(f.bounds) > 0 {
			return problem.Problem{}, "", fmt.Errorf("--bound applies to --structure only, edit the problem file instead")
		}
		p, err := problem.Load(f.file)
		return p, f.file, err
	}

	s, err := problem.LookupStructure(f.structure)
	if err != nil {
		return problem.Problem{}, "", err
	}
	overrides, err := parseBounds(f.bounds)
	if err != nil {
		return problem.Problem{}, "", err
	}
	for name, b := range overrides {
		if s, err = s.WithBound(name, b); err != nil {
			return problem.Problem{}, "", err
		}
	}

	p, err := problem.FromBoundSource(s, f.states)
	source := s.Name
	if f.states {
		source += "/states"
	}
	return p, source, err
}

// parseKeyValues splits repeated key=value flags.
func parseKeyValues(flag string, kvs []string) (map[string]string, error) {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid --%s %q, want key=value", flag, kv)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate --%s key %q", flag, k)
		}
		out[k] = v
	}
	return out, nil
}

// parseOptions turns repeated --opt key=value flags into optimizer options.
func parseOptions(kvs []string) (map[string]float64, error) {
	raw, err := parseKeyValues("opt", kvs)
	if err != nil {
		return nil, err
	}
	opts := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --opt %s=%s: %w", k, v, err)
		}
		opts[k] = f
	}
	return opts, nil
}

// parseMeans turns repeated --mean name=value flags into generator means.
// The value "mid" keeps the midpoint default.
func parseMeans(kvs []string) (map[string]any, error) {
	raw, err := parseKeyValues("mean", kvs)
	if err != nil {
		return nil, err
	}
	means := make(map[string]any, len(raw))
	for k, v := range raw {
		if strings.EqualFold(v, "mid") {
			means[k] = nil
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --mean %s=%s: %w", k, v, err)
		}
		means[k] = f
	}
	return means, nil
}

// parseBounds turns repeated --bound name=low:high flags into bounds.
func parseBounds(kvs []string) (map[string]problem.Bound, error) {
	raw, err := parseKeyValues("bound", kvs)
	if err != nil {
		return nil, err
	}
	bounds := make(map[string]problem.Bound, len(raw))
	for k, v := range raw {
		lo, hi, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --bound %s=%s, want low:high", k, v)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --bound %s low: %w", k, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --bound %s high: %w", k, err)
		}
		bounds[k] = problem.Bound{Low: low, High: high}
	}
	return bounds, nil
}
