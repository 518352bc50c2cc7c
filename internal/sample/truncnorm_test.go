package sample

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/hydrocal/internal/problem"
)

func TestTruncatedNormal_Density(t *testing.T) {
	tests := []struct {
		name                 string
		mu, sigma, low, high float64
	}{
		{"centred", 0, 1, -2, 2},
		{"skewed", 1, 0.5, 0, 5},
		{"upper tail", -3, 1, 2, 4},
		{"lower tail", 3, 1, -4, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tn, err := NewTruncatedNormal(tt.mu, tt.sigma, tt.low, tt.high, NewSource(1))
			if err != nil {
				t.Fatalf("NewTruncatedNormal failed: %v", err)
			}

			// Trapezoidal integral of the density over the interval.
			const steps = 20000
			h := (tt.high - tt.low) / steps
			var area float64
			for i := 0; i <= steps; i++ {
				w := 1.0
				if i == 0 || i == steps {
					w = 0.5
				}
				area += w * tn.Prob(tt.low+float64(i)*h)
			}
			area *= h
			if math.Abs(area-1) > 1e-4 {
				t.Errorf("Density integrates to %f, want 1", area)
			}

			x := tt.low + 0.3*(tt.high-tt.low)
			want := truncatedDensity(x, tt.mu, tt.sigma, tt.low, tt.high)
			if math.Abs(tn.Prob(x)-want) > 1e-6*want {
				t.Errorf("Prob(%f) = %g, want %g", x, tn.Prob(x), want)
			}

			if tn.Prob(tt.low-1) != 0 || tn.Prob(tt.high+1) != 0 {
				t.Error("Density must be zero outside the interval")
			}
		})
	}
}

func TestTruncatedNormal_RandWithinBounds(t *testing.T) {
	tn, err := NewTruncatedNormal(-3, 1, 2, 4, NewSource(5))
	if err != nil {
		t.Fatalf("NewTruncatedNormal failed: %v", err)
	}

	for i := 0; i < 2000; i++ {
		x, err := tn.Rand()
		if err != nil {
			t.Fatalf("Rand failed: %v", err)
		}
		if x < 2 || x > 4 {
			t.Fatalf("Draw %f outside [2, 4]", x)
		}
	}
}

func TestTruncatedNormal_CDF(t *testing.T) {
	tn, _ := NewTruncatedNormal(0, 1, -1, 1, NewSource(1))

	if tn.CDF(-1) != 0 || tn.CDF(1) != 1 {
		t.Error("CDF must be 0 at low and 1 at high")
	}
	if math.Abs(tn.CDF(0)-0.5) > 1e-12 {
		t.Errorf("CDF(0) = %f, want 0.5 for a symmetric truncation", tn.CDF(0))
	}

	mirrored, _ := NewTruncatedNormal(-3, 1, 2, 4, NewSource(1))
	if c := mirrored.CDF(3); c <= 0 || c >= 1 {
		t.Errorf("CDF(3) = %f, want a value in (0, 1)", c)
	}
}

func TestTruncatedNormal_Invalid(t *testing.T) {
	if _, err := NewTruncatedNormal(0, 0, -1, 1, NewSource(1)); !errors.Is(err, problem.ErrConfig) {
		t.Errorf("Expected ConfigError for zero sigma, got %v", err)
	}
	if _, err := NewTruncatedNormal(0, 1, 1, 1, NewSource(1)); !errors.Is(err, problem.ErrConfig) {
		t.Errorf("Expected ConfigError for empty interval, got %v", err)
	}
	if _, err := NewTruncatedNormal(0, 1e-3, 100, 101, NewSource(1)); !errors.Is(err, problem.ErrConfig) {
		t.Errorf("Expected ConfigError for an interval without mass, got %v", err)
	}
}
