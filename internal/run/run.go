// Package run evaluates a cost function over every parameter set of a
// sample batch, spreading contiguous chunks of the batch over a bounded
// pool of goroutines.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/cwbudde/hydrocal/internal/sample"
)

// CostFunc runs the model for one parameter set and returns its cost.
// It may be called from several goroutines at once.
type CostFunc func(ctx context.Context, set map[string]float64) (float64, error)

// Config controls the evaluation.
type Config struct {
	// NCPU bounds the number of chunks evaluated at once. Values below 1
	// mean 1.
	NCPU int

	// ChunkSize is the number of sets per chunk. Zero splits the batch
	// into NCPU chunks of near-equal size.
	ChunkSize int

	// Progress, if set, is called after each finished chunk with the number
	// of evaluated sets. Calls may come from several goroutines.
	Progress func(done, total int)
}

// DefaultConfig evaluates sequentially in a single chunk.
func DefaultConfig() Config {
	return Config{NCPU: 1}
}

// Result holds one cost per set, in batch order.
type Result struct {
	Costs []float64

	// Best is the index of the lowest finite cost, -1 if none is finite.
	Best int

	Duration time.Duration
}

// MultipleRun evaluates cost on every set of b. The first error cancels
// the remaining chunks and is returned.
func MultipleRun(ctx context.Context, b *sample.Batch, cost CostFunc, cfg Config) (*Result, error) {
	n := b.NSample()
	if n == 0 {
		return nil, fmt.Errorf("batch has no parameter sets")
	}

	ncpu := max(cfg.NCPU, 1)
	chunk := cfg.ChunkSize
	switch {
	case chunk < 0:
		return nil, fmt.Errorf("chunk size must not be negative, got %d", chunk)
	case chunk == 0:
		chunk = (n + ncpu - 1) / ncpu
	case chunk > n:
		chunk = n
	}

	it, err := b.IterSlice(chunk)
	if err != nil {
		return nil, err
	}

	slog.Info("Multiple run started",
		"n_sample", n,
		"ncpu", ncpu,
		"chunks", it.Len(),
	)

	costs := make([]float64, n)
	var done atomic.Int64
	start := time.Now()

	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(ncpu)

	for it.Next() {
		part, offset, index := it.Batch(), it.Offset(), it.Index()
		p.Go(func(ctx context.Context) error {
			for k := 0; k < part.NSample(); k++ {
				// Cancelled by a failing sibling or the caller; the cause
				// is reported elsewhere.
				if ctx.Err() != nil {
					return nil
				}
				set, err := part.Set(k)
				if err != nil {
					return err
				}
				c, err := cost(ctx, set)
				if err != nil {
					return fmt.Errorf("set %d: %w", offset+k, err)
				}
				costs[offset+k] = c
			}

			total := done.Add(int64(part.NSample()))
			slog.Debug("Chunk evaluated", "chunk", index, "offset", offset, "size", part.NSample())
			if cfg.Progress != nil {
				cfg.Progress(int(total), n)
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Costs: costs, Best: argmin(costs), Duration: time.Since(start)}

	slog.Info("Multiple run completed",
		"n_sample", n,
		"best", res.Best,
		"duration", res.Duration,
	)
	return res, nil
}

func argmin(xs []float64) int {
	best := -1
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if best < 0 || x < xs[best] {
			best = i
		}
	}
	return best
}
