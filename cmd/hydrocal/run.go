package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/bench"
	"github.com/cwbudde/hydrocal/internal/run"
	"github.com/cwbudde/hydrocal/internal/store"
)

var (
	runBench string
	runNCPU  int
	runChunk int
	runTop   int
	runJSON  bool
)

var runCmd = &cobra.Command{
	Use:   "run <batch-id>",
	Short: "Evaluate every set of a saved batch",
	Long: `Evaluates a benchmark cost on every parameter set of a saved batch,
spreading slices of the batch over --ncpu workers, and reports the cost
distribution and the best sets.`,
	Args: cobra.ExactArgs(1),
	RunE: runMultiple,
}

func init() {
	runCmd.Flags().StringVar(&runBench, "bench", bench.Sphere.Name, fmt.Sprintf("Cost function %v", bench.Names()))
	runCmd.Flags().IntVar(&runNCPU, "ncpu", 1, "Number of parallel workers")
	runCmd.Flags().IntVar(&runChunk, "chunk", 0, "Sets per slice (0 = split evenly across workers)")
	runCmd.Flags().IntVar(&runTop, "top", 5, "Number of best sets to print")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the summary as JSON")

	rootCmd.AddCommand(runCmd)
}

func runMultiple(cmd *cobra.Command, args []string) error {
	f, err := bench.Lookup(runBench)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	id, err := store.ResolveID(s, args[0])
	if err != nil {
		return err
	}
	rec, err := s.LoadBatch(id)
	if err != nil {
		return err
	}
	b := rec.Batch

	eval := f.OnNames(b.Names())
	cost := func(_ context.Context, set map[string]float64) (float64, error) {
		return eval(set), nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := run.MultipleRun(ctx, b, cost, run.Config{NCPU: runNCPU, ChunkSize: runChunk})
	if err != nil {
		return err
	}

	summary := res.Summary()
	uniformMean, err := res.UniformMean(b)
	if err != nil {
		return err
	}

	slog.Info("Run complete",
		"batch", rec.ID,
		"bench", f.Name,
		"duration", res.Duration,
		"best_cost", res.Costs[max(res.Best, 0)],
	)

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Batch       string      `json:"batch"`
			Bench       string      `json:"bench"`
			Summary     run.Summary `json:"summary"`
			UniformMean float64     `json:"uniform_mean"`
			Best        int         `json:"best"`
		}{rec.ID, f.Name, summary, uniformMean, res.Best})
	}

	fmt.Fprintf(out, "Batch %s, %d sets, cost %s\n", shortID(rec.ID), b.NSample(), f.Name)
	fmt.Fprintf(out, "  mean %.6g  std %.6g  min %.6g  median %.6g  max %.6g  failed %d\n",
		summary.Mean, summary.StdDev, summary.Min, summary.Median, summary.Max, summary.Failed)
	fmt.Fprintf(out, "  uniform-weighted mean %.6g\n\n", uniformMean)

	order := make([]int, len(res.Costs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return res.Costs[order[i]] < res.Costs[order[j]]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "RANK\tSET\tCOST")
	for _, name := range b.Names() {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)
	for rank, i := range order[:min(runTop, len(order))] {
		set, err := b.Set(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%.6g", rank+1, i, res.Costs[i])
		for _, name := range b.Names() {
			fmt.Fprintf(w, "\t%.6g", set[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
