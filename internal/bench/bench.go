// Package bench provides analytic cost functions with known minima. They
// stand in for the hydrological simulator in demos and tests.
package bench

import (
	"fmt"
	"sort"
)

// Function is a differentiable test cost over a flat parameter vector.
type Function struct {
	Name string

	// Eval returns the cost at x.
	Eval func(x []float64) float64

	// Grad returns the gradient of Eval at x.
	Grad func(x []float64) []float64

	// Minimum returns the location of the global minimum for dimension n.
	Minimum func(n int) []float64
}

// Sphere is f(x) = Σ x_i², minimum 0 at the origin.
var Sphere = Function{
	Name: "sphere",
	Eval: func(x []float64) float64 {
		var sum float64
		for _, v := range x {
			sum += v * v
		}
		return sum
	},
	Grad: func(x []float64) []float64 {
		g := make([]float64, len(x))
		for i, v := range x {
			g[i] = 2 * v
		}
		return g
	},
	Minimum: func(n int) []float64 {
		return make([]float64, n)
	},
}

// Rosenbrock is f(x) = Σ 100·(x_{i+1} - x_i²)² + (1 - x_i)², minimum 0 at
// (1, ..., 1).
var Rosenbrock = Function{
	Name: "rosenbrock",
	Eval: func(x []float64) float64 {
		var sum float64
		for i := 0; i+1 < len(x); i++ {
			a := x[i+1] - x[i]*x[i]
			b := 1 - x[i]
			sum += 100*a*a + b*b
		}
		return sum
	},
	Grad: func(x []float64) []float64 {
		g := make([]float64, len(x))
		for i := 0; i+1 < len(x); i++ {
			a := x[i+1] - x[i]*x[i]
			g[i] += -400*x[i]*a - 2*(1-x[i])
			g[i+1] += 200 * a
		}
		return g
	},
	Minimum: func(n int) []float64 {
		m := make([]float64, n)
		for i := range m {
			m[i] = 1
		}
		return m
	},
}

var registry = map[string]Function{
	Sphere.Name:     Sphere,
	Rosenbrock.Name: Rosenbrock,
}

// Lookup returns the named function.
func Lookup(name string) (Function, error) {
	f, ok := registry[name]
	if !ok {
		return Function{}, fmt.Errorf("unknown benchmark %q, choices are %v", name, Names())
	}
	return f, nil
}

// Names lists the registered functions.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnNames adapts f to a cost over named parameter sets, evaluating the
// values in the order of names.
func (f Function) OnNames(names []string) func(set map[string]float64) float64 {
	return func(set map[string]float64) float64 {
		x := make([]float64, len(names))
		for i, name := range names {
			x[i] = set[name]
		}
		return f.Eval(x)
	}
}
