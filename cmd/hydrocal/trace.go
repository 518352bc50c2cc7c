package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/store"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect training traces",
}

var listTracesCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs with a trace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := store.ListRuns(dataDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No traces found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	},
}

var showTraceCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the loss trace of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowTrace,
}

var deleteTraceCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete the trace of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.DeleteTrace(dataDir, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted trace %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(listTracesCmd)
	traceCmd.AddCommand(showTraceCmd)
	traceCmd.AddCommand(deleteTraceCmd)
}

func runShowTrace(cmd *cobra.Command, args []string) error {
	reader, err := store.NewTraceReader(dataDir, args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EPOCH\tOPTIMIZER\tLOSS")
	for {
		entry, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%.6g\n", entry.Epoch, entry.Optimizer, entry.Loss)
	}
	return w.Flush()
}
