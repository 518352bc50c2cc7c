package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/sample"
	"github.com/cwbudde/hydrocal/internal/store"
)

var (
	sampleProblem   problemFlags
	sampleGenerator string
	sampleN         int
	sampleSeed      uint64
	sampleMeans     []string
	sampleCoefStd   float64
	sampleFormat    string
	sampleOut       string
	sampleSave      bool
	sampleChunk     int
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a weighted sample of parameter or state sets",
	Long: `Draws n candidate sets within the problem bounds, uniformly or from a
truncated normal centred on the bounds' midpoints (or on --mean values).
Each value carries its density as importance weight.

The batch is printed as a table, CSV or JSON and can be saved to the data
directory for later runs.`,
	RunE: runSample,
}

func init() {
	sampleProblem.register(sampleCmd.Flags())
	sampleCmd.Flags().StringVar(&sampleGenerator, "generator", sample.Uniform, "Generator: uniform, normal or gaussian")
	sampleCmd.Flags().IntVarP(&sampleN, "size", "n", sample.DefaultN, "Number of sets")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "Random state (unseeded if not given)")
	sampleCmd.Flags().StringArrayVar(&sampleMeans, "mean", nil, "Normal generator mean, name=value or name=mid (repeatable)")
	sampleCmd.Flags().Float64Var(&sampleCoefStd, "coef-std", sample.DefaultCoefStd, "Normal generator std = (high - low) / coef-std")
	sampleCmd.Flags().StringVar(&sampleFormat, "format", "table", "Output format: table, csv, json or none")
	sampleCmd.Flags().StringVarP(&sampleOut, "out", "o", "", "Write output to file instead of stdout")
	sampleCmd.Flags().BoolVar(&sampleSave, "save", false, "Save the batch to the data directory")
	sampleCmd.Flags().IntVar(&sampleChunk, "chunk", 0, "Also print the boundaries of slices of this size")

	rootCmd.AddCommand(sampleCmd)
}

func runSample(cmd *cobra.Command, args []string) error {
	p, source, err := sampleProblem.load()
	if err != nil {
		return err
	}
	means, err := parseMeans(sampleMeans)
	if err != nil {
		return err
	}

	opts := sample.Options{
		Generator: sampleGenerator,
		N:         sampleN,
		Mean:      means,
		CoefStd:   sample.Float(sampleCoefStd),
	}
	if cmd.Flags().Changed("seed") {
		opts.RandomState = sample.Seed(sampleSeed)
	}

	slog.Info("Generating sample", "source", source, "generator", sampleGenerator, "n", sampleN)

	b, err := sample.Generate(p, opts)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if sampleOut != "" {
		f, err := os.Create(sampleOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeBatch(w, b, sampleFormat); err != nil {
		return err
	}

	if sampleChunk > 0 {
		if err := printChunks(cmd.OutOrStdout(), b, sampleChunk); err != nil {
			return err
		}
	}

	if sampleSave {
		s, err := openStore()
		if err != nil {
			return err
		}
		rec := store.NewBatchRecord(b, source, opts.RandomState)
		if err := s.SaveBatch(rec.ID, rec); err != nil {
			return fmt.Errorf("failed to save batch: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved batch %s (%d sets)\n", rec.ID, b.NSample())
	}
	return nil
}

func writeBatch(w io.Writer, b *sample.Batch, format string) error {
	switch format {
	case "table":
		return writeTable(w, b)
	case "csv":
		return b.ToFrame().WriteCSV(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case "none":
		return nil
	}
	return fmt.Errorf("unknown format %q (table, csv, json, none)", format)
}

func writeTable(w io.Writer, b *sample.Batch) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "\t")
	for _, name := range b.Names() {
		fmt.Fprintf(tw, "%s\t", name)
	}
	fmt.Fprintln(tw, "weight\t")

	for i := 0; i < b.NSample(); i++ {
		set, err := b.Set(i)
		if err != nil {
			return err
		}
		wt, err := b.Weight(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t", i)
		for _, name := range b.Names() {
			fmt.Fprintf(tw, "%.6g\t", set[name])
		}
		fmt.Fprintf(tw, "%.6g\t\n", wt)
	}
	return tw.Flush()
}

func printChunks(w io.Writer, b *sample.Batch, by int) error {
	it, err := b.IterSlice(by)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d slices of at most %d sets:\n", it.Len(), by)
	for it.Next() {
		fmt.Fprintf(w, "  [%d] sets %d..%d\n", it.Index(), it.Offset(), it.Offset()+it.Batch().NSample()-1)
	}
	return nil
}
