package sample

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/cwbudde/hydrocal/internal/problem"
)

func testProblem(t *testing.T) problem.Problem {
	t.Helper()

	p, err := problem.New(
		[]string{"cp", "cft", "exc", "lr"},
		[]problem.Bound{{Low: 1, High: 2000}, {Low: 1, High: 1000}, {Low: -20, High: 5}, {Low: 1, High: 1000}},
	)
	if err != nil {
		t.Fatalf("Failed to create problem: %v", err)
	}
	return p
}

func TestGenerate_Uniform(t *testing.T) {
	p := testProblem(t)

	b, err := Generate(p, Options{N: 200, RandomState: Seed(99)})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if b.Generator() != Uniform {
		t.Errorf("Expected generator uniform, got %s", b.Generator())
	}
	if b.NSample() != 200 {
		t.Errorf("Expected 200 sets, got %d", b.NSample())
	}

	for i, name := range p.Names() {
		bnd := p.Bound(i)
		values := b.Values(name)
		weights := b.Weights(name)
		if len(values) != 200 || len(weights) != 200 {
			t.Fatalf("%s: expected 200 values and weights, got %d and %d", name, len(values), len(weights))
		}
		want := 1 / (bnd.High - bnd.Low)
		for k := range values {
			if values[k] < bnd.Low || values[k] > bnd.High {
				t.Errorf("%s[%d] = %f outside [%f, %f]", name, k, values[k], bnd.Low, bnd.High)
			}
			if weights[k] != want {
				t.Errorf("%s weight[%d] = %g, want %g", name, k, weights[k], want)
			}
		}
	}
}

func TestGenerate_DefaultN(t *testing.T) {
	b, err := Generate(testProblem(t), Options{RandomState: Seed(1)})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if b.NSample() != DefaultN {
		t.Errorf("Expected %d sets, got %d", DefaultN, b.NSample())
	}
}

// truncatedDensity evaluates the truncated normal density from the error
// function directly.
func truncatedDensity(x, mu, sigma, low, high float64) float64 {
	phi := func(z float64) float64 { return 0.5 * (1 + math.Erf(z/math.Sqrt2)) }
	z := (x - mu) / sigma
	pdf := math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
	return pdf / (phi((high-mu)/sigma) - phi((low-mu)/sigma))
}

func TestGenerate_Normal(t *testing.T) {
	p := testProblem(t)

	b, err := Generate(p, Options{
		Generator:   "Gaussian",
		N:           500,
		RandomState: Seed(7),
		Mean:        map[string]any{"exc": -15, "lr": 10.5},
		CoefStd:     Float(4),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if b.Generator() != Gaussian {
		t.Errorf("Expected generator gaussian, got %s", b.Generator())
	}

	means := p.Midpoints()
	means["exc"] = -15
	means["lr"] = 10.5

	for i, name := range p.Names() {
		bnd := p.Bound(i)
		sigma := (bnd.High - bnd.Low) / 4
		values := b.Values(name)
		weights := b.Weights(name)
		for k := range values {
			x := values[k]
			if x < bnd.Low || x > bnd.High {
				t.Fatalf("%s[%d] = %f outside [%f, %f]", name, k, x, bnd.Low, bnd.High)
			}
			want := truncatedDensity(x, means[name], sigma, bnd.Low, bnd.High)
			if math.Abs(weights[k]-want) > 1e-9*want {
				t.Errorf("%s weight[%d] = %g, want %g", name, k, weights[k], want)
			}
			if weights[k] <= 0 {
				t.Errorf("%s weight[%d] must be positive, got %g", name, k, weights[k])
			}
		}
	}
}

func TestGenerate_NormalDefaultMean(t *testing.T) {
	p, _ := problem.New([]string{"x"}, []problem.Bound{{Low: 0, High: 30}})

	b, err := Generate(p, Options{Generator: Normal, N: 4000, RandomState: Seed(3)})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var sum float64
	for _, v := range b.Values("x") {
		sum += v
	}
	mean := sum / float64(b.NSample())
	// Symmetric truncation around the midpoint keeps the mean at 15.
	if math.Abs(mean-15) > 0.5 {
		t.Errorf("Expected sample mean near 15, got %f", mean)
	}
}

func TestGenerate_NormalMeanOutsideBounds(t *testing.T) {
	p, _ := problem.New([]string{"x"}, []problem.Bound{{Low: 0, High: 1}})

	b, err := Generate(p, Options{Generator: Normal, N: 100, RandomState: Seed(11), Mean: map[string]any{"x": 1.8}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for k, v := range b.Values("x") {
		if v < 0 || v > 1 {
			t.Fatalf("x[%d] = %f outside [0, 1]", k, v)
		}
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	p := testProblem(t)

	for _, gen := range []string{Uniform, Normal} {
		t.Run(gen, func(t *testing.T) {
			b1, err := Generate(p, Options{Generator: gen, N: 50, RandomState: Seed(7)})
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			b2, err := Generate(p, Options{Generator: gen, N: 50, RandomState: Seed(7)})
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if !b1.Equal(b2) {
				t.Error("Same random state must give identical batches")
			}

			b3, _ := Generate(p, Options{Generator: gen, N: 50, RandomState: Seed(8)})
			if b1.Equal(b3) {
				t.Error("Different random states should give different batches")
			}
		})
	}
}

func TestGenerate_UnseededConcurrent(t *testing.T) {
	p := testProblem(t)

	const workers = 8
	batches := make([]*Batch, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := Generate(p, Options{N: 20})
			if err != nil {
				t.Errorf("Generate failed: %v", err)
				return
			}
			batches[i] = b
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if batches[i] != nil && batches[0] != nil && batches[i].Equal(batches[0]) {
			t.Errorf("Unseeded batches %d and 0 are identical", i)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	p := testProblem(t)

	tests := []struct {
		name string
		opts Options
	}{
		{"unknown generator", Options{Generator: "sobol", N: 10}},
		{"negative n", Options{N: -1}},
		{"zero coef_std", Options{Generator: Normal, N: 10, CoefStd: Float(0)}},
		{"nan coef_std", Options{Generator: Normal, N: 10, CoefStd: Float(math.NaN())}},
		{"string mean", Options{Generator: Normal, N: 10, Mean: map[string]any{"cp": "high"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(p, tt.opts)
			if !errors.Is(err, problem.ErrConfig) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
		})
	}

	if _, err := Generate(problem.Problem{}, Options{N: 1}); !errors.Is(err, problem.ErrConfig) {
		t.Errorf("Expected ConfigError for zero problem, got %v", err)
	}
}

func TestGenerate_UnknownMeanKeyWarns(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	p := testProblem(t)
	b, err := Generate(p, Options{Generator: Normal, N: 10, RandomState: Seed(1), Mean: map[string]any{"hp": 0.5}})
	if err != nil {
		t.Fatalf("Unknown mean key must not be fatal: %v", err)
	}
	if b.NSample() != 10 {
		t.Errorf("Expected 10 sets, got %d", b.NSample())
	}
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "hp") {
		t.Errorf("Expected a WARN record naming hp, got %q", out)
	}
}

func TestGenerateWith_ExplicitSource(t *testing.T) {
	p := testProblem(t)

	b1, err := GenerateWith(p, Options{N: 30}, NewSource(42))
	if err != nil {
		t.Fatalf("GenerateWith failed: %v", err)
	}
	b2, _ := Generate(p, Options{N: 30, RandomState: Seed(42)})
	if !b1.Equal(b2) {
		t.Error("GenerateWith(NewSource(s)) must match Generate with RandomState s")
	}

	if _, err := GenerateWith(p, Options{N: 30}, nil); !errors.Is(err, problem.ErrConfig) {
		t.Errorf("Expected ConfigError for nil source, got %v", err)
	}
}
