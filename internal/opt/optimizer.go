// Package opt implements the first-order weight-update rules used to train
// the regionalisation mapping: SGD with momentum, Adam, Adagrad and RMSProp.
//
// Every optimizer follows a two-phase contract. It is built from
// hyperparameters only, then bound once to the shape of the parameter tensor
// it trains, either explicitly with Bind or implicitly by the first Update.
// Accumulators are allocated at bind time and never reshaped; an Update with
// a tensor of another shape fails with a *ShapeError and leaves the state
// untouched.
//
// An optimizer instance belongs to one training loop and is not safe for
// concurrent Update calls. Train independent tensors with independent
// instances.
package opt

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Algorithm names accepted by New.
const (
	NameSGD     = "sgd"
	NameAdam    = "adam"
	NameAdagrad = "adagrad"
	NameRMSProp = "rmsprop"
)

// Names lists the algorithms accepted by New.
var Names = []string{NameSGD, NameAdam, NameAdagrad, NameRMSProp}

// Option keys.
const (
	OptLearningRate = "learning_rate"
	OptMomentum     = "momentum"
	OptB1           = "b1"
	OptB2           = "b2"
	OptEps          = "eps"
	OptRho          = "rho"
)

// Optimizer updates a parameter tensor from its gradient. Implementations
// keep accumulator state across calls.
type Optimizer interface {
	// Name returns the algorithm name.
	Name() string

	// Bind allocates the accumulators for tensors of the given shape.
	// Binding again to the same shape is a no-op; another shape fails.
	Bind(shape []int) error

	// Update returns the next iterate of w given the gradient of the loss
	// with respect to w. w and grad are not modified.
	Update(w, grad Tensor) (Tensor, error)

	// Steps returns the number of successful Update calls.
	Steps() int
}

// New builds the named optimizer (case-insensitive) from an options mapping
// restricted to that algorithm's recognised keys. Missing keys take the
// algorithm defaults.
func New(name string, options map[string]float64) (Optimizer, error) {
	switch strings.ToLower(name) {
	case NameSGD:
		cfg := DefaultSGDConfig()
		if err := applyOptions(options, map[string]*float64{
			OptLearningRate: &cfg.LearningRate,
			OptMomentum:     &cfg.Momentum,
		}); err != nil {
			return nil, err
		}
		return NewSGD(cfg)

	case NameAdam:
		cfg := DefaultAdamConfig()
		if err := applyOptions(options, map[string]*float64{
			OptLearningRate: &cfg.LearningRate,
			OptB1:           &cfg.B1,
			OptB2:           &cfg.B2,
			OptEps:          &cfg.Eps,
		}); err != nil {
			return nil, err
		}
		return NewAdam(cfg)

	case NameAdagrad:
		cfg := DefaultAdagradConfig()
		if err := applyOptions(options, map[string]*float64{
			OptLearningRate: &cfg.LearningRate,
			OptEps:          &cfg.Eps,
		}); err != nil {
			return nil, err
		}
		return NewAdagrad(cfg)

	case NameRMSProp:
		cfg := DefaultRMSPropConfig()
		if err := applyOptions(options, map[string]*float64{
			OptLearningRate: &cfg.LearningRate,
			OptRho:          &cfg.Rho,
			OptEps:          &cfg.Eps,
		}); err != nil {
			return nil, err
		}
		return NewRMSProp(cfg)
	}

	return nil, &ConfigError{Reason: fmt.Sprintf("unknown optimizer %q, choices are %v", name, Names)}
}

// applyOptions copies options into the recognised fields. All unknown keys
// are reported together.
func applyOptions(options map[string]float64, fields map[string]*float64) error {
	var unknown []string
	for k := range options {
		if _, ok := fields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return &ConfigError{Keys: unknown, Reason: "unknown optimizer options"}
	}
	for k, v := range options {
		*fields[k] = v
	}
	return nil
}

func checkPositive(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("%s must be a positive finite number, got %g", key, v)}
	}
	return nil
}

func checkUnitInterval(key string, v float64) error {
	if math.IsNaN(v) || v < 0 || v >= 1 {
		return &ConfigError{Reason: fmt.Sprintf("%s must be in [0, 1), got %g", key, v)}
	}
	return nil
}

// binding tracks the shape an optimizer is bound to and its step count.
type binding struct {
	shape []int
	bound bool
	steps int
}

// bind records shape and calls alloc with the element count the first time.
func (b *binding) bind(shape []int, alloc func(n int)) error {
	n, err := numel(shape)
	if err != nil {
		return err
	}
	if b.bound {
		if !slices.Equal(b.shape, shape) {
			return &ShapeError{Want: slices.Clone(b.shape), Got: slices.Clone(shape), What: "bind shape"}
		}
		return nil
	}
	b.shape = slices.Clone(shape)
	b.bound = true
	alloc(n)
	return nil
}

// prepare validates w and grad against each other and against the bound
// shape, binding on first use.
func (b *binding) prepare(w, grad Tensor, alloc func(n int)) error {
	if err := w.validate("parameter"); err != nil {
		return err
	}
	if err := grad.validate("gradient"); err != nil {
		return err
	}
	if !w.SameShape(grad) {
		return &ShapeError{Want: slices.Clone(w.Shape), Got: slices.Clone(grad.Shape), What: "gradient"}
	}
	if b.bound && !slices.Equal(b.shape, w.Shape) {
		return &ShapeError{Want: slices.Clone(b.shape), Got: slices.Clone(w.Shape), What: "parameter"}
	}
	return b.bind(w.Shape, alloc)
}

// Steps returns the number of successful updates.
func (b *binding) Steps() int {
	return b.steps
}
