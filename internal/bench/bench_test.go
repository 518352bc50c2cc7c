package bench

import (
	"math"
	"testing"
)

func TestMinima(t *testing.T) {
	for _, name := range Names() {
		f, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		for _, n := range []int{1, 2, 5} {
			x := f.Minimum(n)
			if c := f.Eval(x); c != 0 {
				t.Errorf("%s: cost at minimum (n=%d) = %g, want 0", name, n, c)
			}
			for i, g := range f.Grad(x) {
				if g != 0 {
					t.Errorf("%s: gradient[%d] at minimum = %g, want 0", name, i, g)
				}
			}
		}
	}
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	x := []float64{-1.2, 0.7, 2.1}
	const h = 1e-6

	for _, f := range []Function{Sphere, Rosenbrock} {
		t.Run(f.Name, func(t *testing.T) {
			grad := f.Grad(x)
			for i := range x {
				xp := append([]float64(nil), x...)
				xm := append([]float64(nil), x...)
				xp[i] += h
				xm[i] -= h
				fd := (f.Eval(xp) - f.Eval(xm)) / (2 * h)
				if math.Abs(fd-grad[i]) > 1e-4*math.Max(1, math.Abs(fd)) {
					t.Errorf("grad[%d] = %g, finite difference %g", i, grad[i], fd)
				}
			}
		})
	}
}

func TestOnNames(t *testing.T) {
	cost := Rosenbrock.OnNames([]string{"b", "a"})

	// x = (b, a) = (1, 1)
	if c := cost(map[string]float64{"a": 1, "b": 1}); c != 0 {
		t.Errorf("cost = %g, want 0", c)
	}
	// x = (b, a) = (0, 1): 100·(1-0)² + 1 = 101
	if c := cost(map[string]float64{"a": 1, "b": 0}); c != 101 {
		t.Errorf("cost = %g, want 101", c)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("ackley"); err == nil {
		t.Error("expected error for unknown benchmark")
	}
}
