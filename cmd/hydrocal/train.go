package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/bench"
	"github.com/cwbudde/hydrocal/internal/opt"
	"github.com/cwbudde/hydrocal/internal/store"
	"github.com/cwbudde/hydrocal/internal/train"
)

var (
	trainBench        string
	trainOptimizer    string
	trainOpts         []string
	trainDim          int
	trainInit         float64
	trainEpochs       int
	trainPatience     int
	trainThreshold    float64
	trainTrace        bool
	trainTraceWeights bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train weights on a benchmark with a first-order optimizer",
	Long: `Minimises a benchmark cost from a constant starting point with sgd,
adam, adagrad or rmsprop. Hyperparameters are passed as repeated
--opt key=value flags, for example --opt learning_rate=0.01 --opt b1=0.8.

With --trace the loss of every epoch is written to
<data-dir>/runs/<id>/trace.jsonl.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainBench, "bench", bench.Rosenbrock.Name, fmt.Sprintf("Cost function %v", bench.Names()))
	trainCmd.Flags().StringVar(&trainOptimizer, "optimizer", opt.NameAdam, fmt.Sprintf("Optimizer %v", opt.Names))
	trainCmd.Flags().StringArrayVar(&trainOpts, "opt", nil, "Optimizer option key=value (repeatable)")
	trainCmd.Flags().IntVar(&trainDim, "dim", 2, "Number of weights")
	trainCmd.Flags().Float64Var(&trainInit, "init", -1, "Initial value of every weight")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 1000, "Maximum number of epochs")
	trainCmd.Flags().IntVar(&trainPatience, "patience", 0, "Stop after N epochs without improvement (0 = never)")
	trainCmd.Flags().Float64Var(&trainThreshold, "threshold", train.DefaultConvergenceConfig().Threshold, "Minimum relative improvement")
	trainCmd.Flags().BoolVar(&trainTrace, "trace", false, "Write a loss trace to the data directory")
	trainCmd.Flags().BoolVar(&trainTraceWeights, "trace-weights", false, "Include weights in trace entries")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	f, err := bench.Lookup(trainBench)
	if err != nil {
		return err
	}
	if trainDim < 1 {
		return fmt.Errorf("--dim must be positive, got %d", trainDim)
	}
	options, err := parseOptions(trainOpts)
	if err != nil {
		return err
	}

	cfg := train.Config{
		Optimizer:    trainOptimizer,
		Options:      options,
		Epochs:       trainEpochs,
		Convergence:  train.DisabledConvergenceConfig(),
		TraceWeights: trainTraceWeights,
	}
	if trainPatience > 0 {
		cfg.Convergence = train.ConvergenceConfig{Enabled: true, Patience: trainPatience, Threshold: trainThreshold}
	}

	var tw *store.TraceWriter
	if trainTrace {
		if _, err := openStore(); err != nil {
			return err
		}
		if tw, err = store.NewTraceWriter(dataDir, store.NewID(), false); err != nil {
			return err
		}
		defer tw.Close()
		cfg.Trace = tw
	}

	trainer, err := train.New(cfg)
	if err != nil {
		return err
	}

	w0 := opt.Zeros(trainDim)
	for i := range w0.Data {
		w0.Data[i] = trainInit
	}
	grad := func(_ context.Context, w []opt.Tensor) (float64, []opt.Tensor, error) {
		g := opt.Tensor{Shape: w[0].Shape, Data: f.Grad(w[0].Data)}
		return f.Eval(w[0].Data), []opt.Tensor{g}, nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := trainer.Fit(ctx, []opt.Tensor{w0}, grad)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	final := f.Eval(res.Weights[0].Data)
	fmt.Fprintf(out, "%s on %s: %d epochs, loss %.6g -> %.6g (best %.6g)",
		trainOptimizer, f.Name, res.Epochs, res.Losses[0], final, res.BestLoss)
	if res.Converged {
		fmt.Fprint(out, ", converged")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "weights: %v\n", res.Weights[0].Data)
	fmt.Fprintf(out, "minimum: %v\n", f.Minimum(trainDim))
	if tw != nil {
		fmt.Fprintf(out, "trace: %s (%d epochs)\n", filepath.Base(filepath.Dir(tw.Path())), tw.Count())
	}
	return nil
}
