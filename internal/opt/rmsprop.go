package opt

import (
	"math"
	"slices"
)

// RMSPropConfig holds the RMSProp hyperparameters.
type RMSPropConfig struct {
	LearningRate float64
	Rho          float64 // decay rate of the squared-gradient average
	Eps          float64
}

// DefaultRMSPropConfig returns learning_rate=0.001, rho=0.9, eps=1e-8.
func DefaultRMSPropConfig() RMSPropConfig {
	return RMSPropConfig{LearningRate: 0.001, Rho: 0.9, Eps: 1e-8}
}

// RMSProp divides the learning rate of each weight by a running average of
// its recent gradient magnitudes.
//
//	E  = rho·E + (1-rho)·g²
//	w' = w - lr·g / √(E + eps)
type RMSProp struct {
	binding
	cfg RMSPropConfig
	eg  []float64
}

// NewRMSProp validates cfg and returns an unbound optimizer.
func NewRMSProp(cfg RMSPropConfig) (*RMSProp, error) {
	if err := checkPositive(OptLearningRate, cfg.LearningRate); err != nil {
		return nil, err
	}
	if err := checkUnitInterval(OptRho, cfg.Rho); err != nil {
		return nil, err
	}
	if err := checkPositive(OptEps, cfg.Eps); err != nil {
		return nil, err
	}
	return &RMSProp{cfg: cfg}, nil
}

// Name implements Optimizer.
func (o *RMSProp) Name() string { return NameRMSProp }

// Config returns the hyperparameters.
func (o *RMSProp) Config() RMSPropConfig { return o.cfg }

// Bind implements Optimizer.
func (o *RMSProp) Bind(shape []int) error {
	return o.bind(shape, o.alloc)
}

func (o *RMSProp) alloc(n int) {
	o.eg = make([]float64, n)
}

// Update implements Optimizer.
func (o *RMSProp) Update(w, grad Tensor) (Tensor, error) {
	if err := o.prepare(w, grad, o.alloc); err != nil {
		return Tensor{}, err
	}

	rho := o.cfg.Rho
	out := Tensor{Shape: slices.Clone(w.Shape), Data: make([]float64, len(w.Data))}
	for i, g := range grad.Data {
		o.eg[i] = rho*o.eg[i] + (1-rho)*g*g
		out.Data[i] = w.Data[i] - o.cfg.LearningRate*g/math.Sqrt(o.eg[i]+o.cfg.Eps)
	}

	o.steps++
	return out, nil
}
