package run

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/hydrocal/internal/bench"
	"github.com/cwbudde/hydrocal/internal/problem"
	"github.com/cwbudde/hydrocal/internal/sample"
)

func testBatch(t *testing.T, generator string, n int) *sample.Batch {
	t.Helper()

	p, err := problem.New(
		[]string{"x", "y"},
		[]problem.Bound{{Low: -2, High: 2}, {Low: -1, High: 3}},
	)
	if err != nil {
		t.Fatalf("problem.New failed: %v", err)
	}
	b, err := sample.Generate(p, sample.Options{Generator: generator, N: n, RandomState: sample.Seed(11)})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return b
}

func sphereCost(_ context.Context, set map[string]float64) (float64, error) {
	return bench.Sphere.OnNames([]string{"x", "y"})(set), nil
}

func TestMultipleRunMatchesSequential(t *testing.T) {
	b := testBatch(t, sample.Uniform, 103)

	want := make([]float64, b.NSample())
	for i := range want {
		set, _ := b.Set(i)
		want[i], _ = sphereCost(context.Background(), set)
	}

	configs := []Config{
		DefaultConfig(),
		{NCPU: 4},
		{NCPU: 4, ChunkSize: 1},
		{NCPU: 3, ChunkSize: 10},
		{NCPU: 8, ChunkSize: 500},
		{NCPU: 0, ChunkSize: 7},
	}

	for _, cfg := range configs {
		res, err := MultipleRun(context.Background(), b, sphereCost, cfg)
		if err != nil {
			t.Fatalf("MultipleRun(%+v) failed: %v", cfg, err)
		}
		if !slices.Equal(res.Costs, want) {
			t.Errorf("MultipleRun(%+v) costs differ from sequential evaluation", cfg)
		}
		if res.Best != argmin(want) {
			t.Errorf("MultipleRun(%+v) best = %d, want %d", cfg, res.Best, argmin(want))
		}
	}
}

func TestMultipleRunBoundsConcurrency(t *testing.T) {
	b := testBatch(t, sample.Normal, 64)

	var running, peak atomic.Int32
	cost := func(ctx context.Context, set map[string]float64) (float64, error) {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		defer running.Add(-1)
		return sphereCost(ctx, set)
	}

	if _, err := MultipleRun(context.Background(), b, cost, Config{NCPU: 3, ChunkSize: 4}); err != nil {
		t.Fatalf("MultipleRun failed: %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d exceeds NCPU 3", peak.Load())
	}
}

func TestMultipleRunProgress(t *testing.T) {
	b := testBatch(t, sample.Uniform, 20)

	var mu sync.Mutex
	var calls []int
	cfg := Config{NCPU: 2, ChunkSize: 6, Progress: func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 20 {
			t.Errorf("total = %d, want 20", total)
		}
		calls = append(calls, done)
	}}

	if _, err := MultipleRun(context.Background(), b, sphereCost, cfg); err != nil {
		t.Fatalf("MultipleRun failed: %v", err)
	}

	slices.Sort(calls)
	if len(calls) != 4 || calls[len(calls)-1] != 20 {
		t.Errorf("progress calls = %v, want 4 ending at 20", calls)
	}
}

func TestMultipleRunError(t *testing.T) {
	b := testBatch(t, sample.Uniform, 50)
	boom := errors.New("solver diverged")

	var evaluated atomic.Int32
	cost := func(ctx context.Context, set map[string]float64) (float64, error) {
		if evaluated.Add(1) == 5 {
			return 0, boom
		}
		return sphereCost(ctx, set)
	}

	_, err := MultipleRun(context.Background(), b, cost, Config{NCPU: 1, ChunkSize: 10})
	if !errors.Is(err, boom) {
		t.Fatalf("expected solver error, got %v", err)
	}
	if n := evaluated.Load(); n != 5 {
		t.Errorf("evaluated %d sets after failure, want 5", n)
	}
}

func TestMultipleRunCancelled(t *testing.T) {
	b := testBatch(t, sample.Uniform, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MultipleRun(ctx, b, sphereCost, Config{NCPU: 2})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMultipleRunInvalid(t *testing.T) {
	b := testBatch(t, sample.Uniform, 10)

	if _, err := MultipleRun(context.Background(), b, sphereCost, Config{NCPU: 1, ChunkSize: -1}); err == nil {
		t.Error("expected error for negative chunk size")
	}

	empty, _ := b.Head(0)
	if _, err := MultipleRun(context.Background(), empty, sphereCost, DefaultConfig()); err == nil {
		t.Error("expected error for empty batch")
	}
}

func TestArgmin(t *testing.T) {
	tests := []struct {
		xs   []float64
		want int
	}{
		{[]float64{3, 1, 2}, 1},
		{[]float64{math.NaN(), 5, math.Inf(-1), 4}, 3},
		{[]float64{math.NaN(), math.Inf(1)}, -1},
		{[]float64{2, 2}, 0},
	}
	for _, tt := range tests {
		if got := argmin(tt.xs); got != tt.want {
			t.Errorf("argmin(%v) = %d, want %d", tt.xs, got, tt.want)
		}
	}
}
