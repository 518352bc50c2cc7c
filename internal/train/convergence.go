package train

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls early stopping.
type ConvergenceConfig struct {
	Enabled bool

	// Patience is the number of consecutive epochs without significant
	// improvement after which training stops.
	Patience int

	// Threshold is the minimum relative improvement that counts as
	// progress: (lastSignificant - loss) / |lastSignificant|.
	Threshold float64
}

// DefaultConvergenceConfig returns patience 10 and a 1e-4 relative threshold.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  10,
		Threshold: 1e-4,
	}
}

// DisabledConvergenceConfig never stops early.
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{Enabled: false}
}

// ConvergenceTracker records the loss history of a training run and
// detects when it stops improving.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	best            float64
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker returns an empty tracker.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		best:            math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records loss and reports whether training has converged. The
// history is kept even when detection is disabled.
func (c *ConvergenceTracker) Update(loss float64) bool {
	c.history = append(c.history, loss)
	if loss < c.best {
		c.best = loss
	}

	if !c.config.Enabled {
		return false
	}

	if len(c.history) == 1 {
		c.lastSignificant = loss
		return false
	}

	improvement := relativeImprovement(c.lastSignificant, loss)
	if improvement >= c.config.Threshold {
		c.lastSignificant = loss
		c.staleCount = 0
		return false
	}

	c.staleCount++
	slog.Debug("No significant loss improvement",
		"loss", loss,
		"last_significant", c.lastSignificant,
		"relative_improvement", improvement,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)

	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected, stopping early",
			"epoch", len(c.history),
			"stale_count", c.staleCount,
			"best_loss", c.best,
		)
		return true
	}
	return false
}

func relativeImprovement(prev, cur float64) float64 {
	if prev == 0 {
		if cur < 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (prev - cur) / math.Abs(prev)
}

// Best returns the lowest loss seen.
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns a copy of the recorded losses.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the number of epochs since the last significant
// improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker.
func (c *ConvergenceTracker) Reset() {
	c.history = nil
	c.best = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
}
