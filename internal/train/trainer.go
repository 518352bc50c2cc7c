// Package train fits the weights of a regionalisation mapping with the
// first-order optimizers of package opt.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/hydrocal/internal/opt"
	"github.com/cwbudde/hydrocal/internal/store"
)

// GradFunc evaluates the loss at weights and its gradient with respect to
// each weight tensor. The returned gradients must match weights in count
// and shape.
type GradFunc func(ctx context.Context, weights []opt.Tensor) (loss float64, grads []opt.Tensor, err error)

// TraceSink receives one entry per epoch. *store.TraceWriter implements it.
type TraceSink interface {
	Write(entry store.TraceEntry) error
}

// Config configures a Trainer.
type Config struct {
	Optimizer string
	Options   map[string]float64

	// Epochs is the maximum number of update steps.
	Epochs int

	Convergence ConvergenceConfig

	// Trace, if set, receives the loss of every epoch.
	Trace TraceSink

	// TraceWeights adds the flattened weights to every trace entry.
	TraceWeights bool
}

// DefaultConfig returns Adam with default hyperparameters for 100 epochs.
func DefaultConfig() Config {
	return Config{
		Optimizer:   opt.NameAdam,
		Epochs:      100,
		Convergence: DefaultConvergenceConfig(),
	}
}

// Result is the outcome of Fit.
type Result struct {
	Weights []opt.Tensor

	// Losses holds the loss evaluated at the start of each epoch.
	Losses []float64

	Epochs    int
	Converged bool
	BestLoss  float64
	Duration  time.Duration
}

// Trainer runs gradient descent over a list of weight tensors.
type Trainer struct {
	cfg Config
}

// New validates cfg. The optimizer name and options are checked here so a
// bad configuration fails before any gradient is evaluated.
func New(cfg Config) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.Convergence.Enabled && cfg.Convergence.Patience <= 0 {
		return nil, fmt.Errorf("convergence patience must be positive, got %d", cfg.Convergence.Patience)
	}
	if _, err := opt.New(cfg.Optimizer, cfg.Options); err != nil {
		return nil, err
	}
	return &Trainer{cfg: cfg}, nil
}

// Fit trains copies of weights. Each tensor gets its own optimizer
// instance, so accumulator state is never shared between tensors or
// between calls to Fit.
func (t *Trainer) Fit(ctx context.Context, weights []opt.Tensor, grad GradFunc) (*Result, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weight tensors to train")
	}

	w := make([]opt.Tensor, len(weights))
	opts := make([]opt.Optimizer, len(weights))
	for i := range weights {
		w[i] = weights[i].Clone()

		o, err := opt.New(t.cfg.Optimizer, t.cfg.Options)
		if err != nil {
			return nil, err
		}
		if err := o.Bind(w[i].Shape); err != nil {
			return nil, fmt.Errorf("failed to bind optimizer to weight %d: %w", i, err)
		}
		opts[i] = o
	}

	tracker := NewConvergenceTracker(t.cfg.Convergence)
	res := &Result{}
	start := time.Now()

	slog.Info("Training started",
		"optimizer", opts[0].Name(),
		"tensors", len(w),
		"max_epochs", t.cfg.Epochs,
	)

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		loss, grads, err := grad(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("gradient evaluation failed at epoch %d: %w", epoch, err)
		}
		if math.IsNaN(loss) {
			return nil, fmt.Errorf("loss is NaN at epoch %d", epoch)
		}
		if len(grads) != len(w) {
			return nil, fmt.Errorf("gradient count %d does not match %d weight tensors", len(grads), len(w))
		}

		for i := range w {
			next, err := opts[i].Update(w[i], grads[i])
			if err != nil {
				return nil, fmt.Errorf("update of weight %d failed at epoch %d: %w", i, epoch, err)
			}
			w[i] = next
		}

		res.Losses = append(res.Losses, loss)
		res.Epochs = epoch + 1

		if err := t.trace(epoch, loss, opts[0].Name(), w); err != nil {
			return nil, err
		}

		slog.Debug("Epoch completed", "epoch", epoch, "loss", loss)

		if tracker.Update(loss) {
			res.Converged = true
			break
		}
	}

	res.Weights = w
	res.BestLoss = tracker.Best()
	res.Duration = time.Since(start)

	slog.Info("Training completed",
		"epochs", res.Epochs,
		"converged", res.Converged,
		"best_loss", res.BestLoss,
		"duration", res.Duration,
	)
	return res, nil
}

func (t *Trainer) trace(epoch int, loss float64, name string, w []opt.Tensor) error {
	if t.cfg.Trace == nil {
		return nil
	}

	entry := store.TraceEntry{
		Epoch:     epoch,
		Loss:      loss,
		Optimizer: name,
		Timestamp: time.Now(),
	}
	if t.cfg.TraceWeights {
		for _, tn := range w {
			entry.Weights = append(entry.Weights, tn.Data...)
		}
	}
	if err := t.cfg.Trace.Write(entry); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}
