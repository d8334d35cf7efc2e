package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/history"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of import, dedup and clean runs.

Each run is recorded as a JSON file under the store's history folder.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific run",
	Long:  `Display one run by its ID. A unique ID prefix is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove history entries older than history.retention_days.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show (0 = all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory returns the history kept under the configured store.
func openHistory() (*history.History, error) {
	h, err := history.New(store.New(cfg.StoreDir).HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return h, nil
}

// recordHistory stores e when history is enabled. Failures are logged and
// never fail the command.
func recordHistory(e *history.Entry) {
	if !cfg.History.Enabled {
		return
	}
	log := logging.Get("history")
	h, err := openHistory()
	if err != nil {
		log.Warn("history unavailable", "error", err)
		return
	}
	if err := h.Record(e); err != nil {
		log.Warn("failed to record run", "operation", e.Operation, "error", err)
		return
	}
	printVerbose("Recorded %s run %s", e.Operation, e.ID)
}

// newEntry starts a history entry for op.
func newEntry(op history.Operation, start time.Time, err error) *history.Entry {
	e := &history.Entry{
		Timestamp: start,
		Operation: op,
		Elapsed:   time.Since(start),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := openHistory()
	if err != nil {
		return err
	}
	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}
	return render(cmd, output.History(entries))
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	h, err := openHistory()
	if err != nil {
		return err
	}
	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	return render(cmd, output.HistoryEntry(entry))
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	h, err := openHistory()
	if err != nil {
		return err
	}

	days := cfg.History.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}
	printVerbose("Cleaning history entries older than %d days", days)

	removed, err := h.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d history entries older than %d days.", removed, days)
	return nil
}
