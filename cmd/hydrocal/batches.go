package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/hydrocal/internal/store"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
	showFormat    string
	showHead      int
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Manage saved sample batches",
}

var listBatchesCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved batches",
	RunE:  runListBatches,
}

var showBatchCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved batch",
	Long:  `Print a saved batch. The id may be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShowBatch,
}

var cleanBatchesCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old batches",
	Long: `Delete saved batches by retention policy: keep the newest N, or delete
those older than N days, or both.`,
	RunE: runCleanBatches,
}

func init() {
	rootCmd.AddCommand(batchesCmd)
	batchesCmd.AddCommand(listBatchesCmd)
	batchesCmd.AddCommand(showBatchCmd)
	batchesCmd.AddCommand(cleanBatchesCmd)

	showBatchCmd.Flags().StringVar(&showFormat, "format", "table", "Output format: table, csv or json")
	showBatchCmd.Flags().IntVar(&showHead, "head", 0, "Print only the first N sets (0 = all)")

	cleanBatchesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N batches (0 = keep all)")
	cleanBatchesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete batches older than N days (0 = no age limit)")
	cleanBatchesCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListBatches(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	infos, err := s.ListBatches()
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No batches found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tGENERATOR\tVARS\tSETS\tSIZE")
	fmt.Fprintln(w, "--\t-------\t------\t---------\t----\t----\t----")

	for _, info := range infos {
		size, err := getDirSize(filepath.Join(dataDir, "batches", info.ID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			shortID(info.ID),
			info.Created.Format("2006-01-02 15:04:05"),
			info.Source,
			info.Generator,
			info.NumVars,
			info.NSample,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal batches: %d\n", len(infos))
	return nil
}

func runShowBatch(cmd *cobra.Command, args []string) error {
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
	if showHead > 0 && showHead < b.NSample() {
		if b, err = b.Head(showHead); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if showFormat == "table" {
		fmt.Fprintf(out, "Batch %s\n", rec.ID)
		fmt.Fprintf(out, "  created:   %s\n", rec.Created.Format(time.RFC3339))
		fmt.Fprintf(out, "  source:    %s\n", rec.Source)
		if rec.Seed != nil {
			fmt.Fprintf(out, "  seed:      %d\n", *rec.Seed)
		}
		fmt.Fprintf(out, "  generator: %s\n", rec.Batch.Generator())
		fmt.Fprintf(out, "  problem:   %s\n\n", rec.Batch.Problem())
	}
	return writeBatch(out, b, showFormat)
}

func runCleanBatches(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	infos, err := s.ListBatches()
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	out := cmd.OutOrStdout()
	toDelete := selectBatchesForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No batches match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d batch(es) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%d sets, %s)\n",
			shortID(info.ID),
			info.NSample,
			info.Created.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := s.DeleteBatch(info.ID); err != nil {
			slog.Error("Failed to delete batch", "id", info.ID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted batch", "id", info.ID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d batch(es), %d failed.\n", deleted, failed)
	return nil
}

// selectBatchesForDeletion applies the retention policy: everything older
// than olderThanDays, plus everything but the keepLast newest.
func selectBatchesForDeletion(infos []store.BatchInfo, keepLast, olderThanDays int, now time.Time) []store.BatchInfo {
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Created.Before(cutoff) {
				selected[info.ID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := append([]store.BatchInfo(nil), infos...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Created.Before(sorted[j].Created)
		})
		for _, info := range sorted[:len(sorted)-keepLast] {
			selected[info.ID] = true
		}
	}

	var toDelete []store.BatchInfo
	for _, info := range infos {
		if selected[info.ID] {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
