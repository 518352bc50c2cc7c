package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/bench"
	"github.com/cwbudde/hydrocal/internal/search"
)

var (
	searchProblem problemFlags
	searchBench   string
	searchIters   int
	searchPop     int
	searchSeed    int64
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Calibrate a problem with the mayfly optimizer",
	Long: `Runs the mayfly metaheuristic over the problem bounds to minimise a
benchmark cost and prints the best parameter set.`,
	RunE: runSearch,
}

func init() {
	searchProblem.register(searchCmd.Flags())
	searchCmd.Flags().StringVar(&searchBench, "bench", bench.Sphere.Name, fmt.Sprintf("Cost function %v", bench.Names()))
	searchCmd.Flags().IntVar(&searchIters, "iters", 100, "Max iterations")
	searchCmd.Flags().IntVar(&searchPop, "pop", 30, "Population size (at least 20)")
	searchCmd.Flags().Int64Var(&searchSeed, "seed", 42, "Random seed")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	f, err := bench.Lookup(searchBench)
	if err != nil {
		return err
	}
	if searchPop < 20 {
		return fmt.Errorf("--pop must be at least 20, got %d", searchPop)
	}
	p, source, err := searchProblem.load()
	if err != nil {
		return err
	}

	res := search.Calibrate(p, search.NewMayfly(searchIters, searchPop, searchSeed), f.OnNames(p.Names()))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s on %s: cost %.6g after %d evaluations (%s)\n",
		f.Name, source, res.Cost, res.Evaluations, res.Duration)

	names := p.Names()
	sort.Strings(names)
	for _, name := range names {
		b, _ := p.Lookup(name)
		fmt.Fprintf(out, "  %-6s %.6g  [%g, %g]\n", name, res.Set[name], b.Low, b.High)
	}
	return nil
}
