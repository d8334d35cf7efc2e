package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/dedup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/search"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether each unique store is up to date",
	Long: `Show the raw and unique store sizes, the last dedup time and whether a
kind needs a dedup. A kind is outdated when its raw store exists and the
unique store is missing, older than the raw store, or older than the last
import.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count lines in the raw and unique stores",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(countCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	statuses, err := dedup.Status(cfg.StoreDir)
	if err != nil {
		return err
	}
	return render(cmd, output.Status(statuses))
}

func runCount(cmd *cobra.Command, args []string) error {
	counts, err := search.Counts(cmd.Context(), cfg.StoreDir)
	if err != nil {
		return err
	}
	return render(cmd, output.Counts(counts))
}
