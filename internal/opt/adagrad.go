package opt

import (
	"math"
	"slices"
)

// AdagradConfig holds the Adagrad hyperparameters.
type AdagradConfig struct {
	LearningRate float64
	Eps          float64
}

// DefaultAdagradConfig returns learning_rate=0.01, eps=1e-8.
func DefaultAdagradConfig() AdagradConfig {
	return AdagradConfig{LearningRate: 0.01, Eps: 1e-8}
}

// Adagrad scales each coordinate by the root of its summed squared
// gradients, giving rarely updated weights larger steps.
//
//	G  = G + g²
//	w' = w - lr·g / √(G + eps)
type Adagrad struct {
	binding
	cfg AdagradConfig
	g2  []float64
}

// NewAdagrad validates cfg and returns an unbound optimizer.
func NewAdagrad(cfg AdagradConfig) (*Adagrad, error) {
	if err := checkPositive(OptLearningRate, cfg.LearningRate); err != nil {
		return nil, err
	}
	if err := checkPositive(OptEps, cfg.Eps); err != nil {
		return nil, err
	}
	return &Adagrad{cfg: cfg}, nil
}

// Name implements Optimizer.
func (o *Adagrad) Name() string { return NameAdagrad }

// Config returns the hyperparameters.
func (o *Adagrad) Config() AdagradConfig { return o.cfg }

// Bind implements Optimizer.
func (o *Adagrad) Bind(shape []int) error {
	return o.bind(shape, o.alloc)
}

func (o *Adagrad) alloc(n int) {
	o.g2 = make([]float64, n)
}

// Update implements Optimizer.
func (o *Adagrad) Update(w, grad Tensor) (Tensor, error) {
	if err := o.prepare(w, grad, o.alloc); err != nil {
		return Tensor{}, err
	}

	out := Tensor{Shape: slices.Clone(w.Shape), Data: make([]float64, len(w.Data))}
	for i, g := range grad.Data {
		o.g2[i] += g * g
		out.Data[i] = w.Data[i] - o.cfg.LearningRate*g/math.Sqrt(o.g2[i]+o.cfg.Eps)
	}

	o.steps++
	return out, nil
}
