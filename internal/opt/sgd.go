package opt

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// SGDConfig holds the SGD hyperparameters.
type SGDConfig struct {
	LearningRate float64
	Momentum     float64
}

// DefaultSGDConfig returns learning_rate=0.01, momentum=0.
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{LearningRate: 0.01, Momentum: 0}
}

// SGD is gradient descent with exponential momentum smoothing:
//
//	v  = momentum·v + (1-momentum)·g
//	w' = w - lr·v
type SGD struct {
	binding
	cfg SGDConfig
	v   []float64
}

// NewSGD validates cfg and returns an unbound optimizer.
func NewSGD(cfg SGDConfig) (*SGD, error) {
	if err := checkPositive(OptLearningRate, cfg.LearningRate); err != nil {
		return nil, err
	}
	if err := checkUnitInterval(OptMomentum, cfg.Momentum); err != nil {
		return nil, err
	}
	return &SGD{cfg: cfg}, nil
}

// Name implements Optimizer.
func (o *SGD) Name() string { return NameSGD }

// Config returns the hyperparameters.
func (o *SGD) Config() SGDConfig { return o.cfg }

// Bind implements Optimizer.
func (o *SGD) Bind(shape []int) error {
	return o.bind(shape, o.alloc)
}

func (o *SGD) alloc(n int) {
	o.v = make([]float64, n)
}

// Update implements Optimizer.
func (o *SGD) Update(w, grad Tensor) (Tensor, error) {
	if err := o.prepare(w, grad, o.alloc); err != nil {
		return Tensor{}, err
	}

	floats.Scale(o.cfg.Momentum, o.v)
	floats.AddScaled(o.v, 1-o.cfg.Momentum, grad.Data)

	out := Tensor{Shape: slices.Clone(w.Shape), Data: make([]float64, len(w.Data))}
	floats.AddScaledTo(out.Data, w.Data, -o.cfg.LearningRate, o.v)

	o.steps++
	return out, nil
}
