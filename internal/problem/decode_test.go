package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromMap(t *testing.T) {
	p, err := FromMap(map[string]any{
		"num_vars": 2,
		"names":    []string{"cp", "lr"},
		"bounds":   [][]float64{{1, 200}, {1, 500}},
	})
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	if p.NumVars() != 2 {
		t.Errorf("Expected 2 variables, got %d", p.NumVars())
	}
	if b, _ := p.Lookup("lr"); b.High != 500 {
		t.Errorf("Expected lr upper bound 500, got %f", b.High)
	}
}

func TestFromMap_MissingKeys(t *testing.T) {
	tests := []struct {
		name string
		def  map[string]any
	}{
		{"nil", nil},
		{"no num_vars", map[string]any{"names": []string{"a"}, "bounds": [][]float64{{0, 1}}}},
		{"no names", map[string]any{"num_vars": 1, "bounds": [][]float64{{0, 1}}}},
		{"no bounds", map[string]any{"num_vars": 1, "names": []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.def)
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
		})
	}
}

func TestFromMap_BadValues(t *testing.T) {
	tests := []struct {
		name string
		def  map[string]any
	}{
		{"fractional num_vars", map[string]any{"num_vars": 1.5, "names": []string{"a"}, "bounds": [][]float64{{0, 1}}}},
		{"num_vars mismatch", map[string]any{"num_vars": 2, "names": []string{"a"}, "bounds": [][]float64{{0, 1}}}},
		{"non-string name", map[string]any{"num_vars": 1, "names": []any{3}, "bounds": [][]float64{{0, 1}}}},
		{"triple bound", map[string]any{"num_vars": 1, "names": []string{"a"}, "bounds": [][]float64{{0, 1, 2}}}},
		{"string bound", map[string]any{"num_vars": 1, "names": []string{"a"}, "bounds": []any{[]any{"0", 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(tt.def)
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
		})
	}
}

func TestParse_UnknownKeysWarn(t *testing.T) {
	p, warnings, err := Parse(map[string]any{
		"num_vars": 1,
		"names":    []string{"a"},
		"bounds":   [][]float64{{0, 1}},
		"groups":   "x",
	})
	if err != nil {
		t.Fatalf("Unknown keys must not be fatal: %v", err)
	}
	if p.NumVars() != 1 {
		t.Errorf("Expected 1 variable, got %d", p.NumVars())
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "groups") {
		t.Errorf("Expected a warning naming groups, got %v", warnings)
	}
}

func TestFromMap_LogsWarning(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	_, err := FromMap(map[string]any{
		"num_vars": 1,
		"names":    []string{"a"},
		"bounds":   [][]float64{{0, 1}},
		"extra":    true,
	})
	if err != nil {
		t.Fatalf("FromMap failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "extra") {
		t.Errorf("Expected a WARN record naming extra, got %q", out)
	}
}

func TestDecode(t *testing.T) {
	doc := `{"num_vars": 4, "names": ["cp", "cft", "exc", "lr"],
		"bounds": [[1, 2000], [1, 1000], [-20, 5], [1, 1000]]}`

	p, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if p.NumVars() != 4 || p.Name(2) != "exc" {
		t.Errorf("Unexpected problem: %v", p)
	}
}

func TestDecode_NotObject(t *testing.T) {
	_, err := Decode(strings.NewReader(`[1, 2]`))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.json")
	doc := `{"num_vars": 1, "names": ["lr"], "bounds": [[1, 1000]]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write problem file: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name(0) != "lr" {
		t.Errorf("Expected lr, got %s", p.Name(0))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestProblem_JSONRoundTrip(t *testing.T) {
	p := testProblem(t)

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var q Problem
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !p.Equal(q) {
		t.Errorf("Round trip changed problem: %v != %v", p, q)
	}
}
