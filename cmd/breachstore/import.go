package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/cmd/breachstore/tui"
	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/dedup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/history"
	"github.com/jamesainslie/breachstore/pkg/breachstore/ingest"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import new or changed files into the raw stores",
	Long: `Import every new or changed file below the import folder, or a single
file, into the raw per-kind stores.

Plain text, .gz, .bz2, .xz, .lzma, .zip, .7z and tar archives (optionally
compressed) are read. Files below a folder named users, passwords, emails
or hashes are imported as that kind without classification. A file is
only imported again after its size or modification time changed.

An interactive progress view is shown when stderr is a terminal.

Examples:
  breachstore import
  breachstore import ~/Downloads/combo.7z
  breachstore import --move-done --dedup`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var (
	importMoveDone   bool
	importChunkLines int
	importExclude    []string
	importNoProgress bool
	importDedup      bool
)

func init() {
	importCmd.Flags().BoolVar(&importMoveDone, "move-done", false, "move imported files into a _done folder beside them")
	importCmd.Flags().IntVar(&importChunkLines, "chunk-lines", 0, "lines processed between flushes (0 = config)")
	importCmd.Flags().StringSliceVarP(&importExclude, "exclude", "e", nil, "additional glob patterns to skip")
	importCmd.Flags().BoolVar(&importNoProgress, "no-progress", false, "disable the progress view")
	importCmd.Flags().BoolVar(&importDedup, "dedup", false, "rebuild outdated unique stores afterwards")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	root := cfg.ImportDir
	if len(args) == 1 {
		p, err := config.ExpandPath(args[0])
		if err != nil {
			return err
		}
		root = p
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create import folder: %w", err)
	}

	opts := importOptions(cmd, root)
	ctx := cmd.Context()

	var stats *types.ImportStats
	var err error
	if showProgress() {
		if lerr := enableTUILogging(); lerr != nil {
			return lerr
		}
		stats, err = tui.RunImport(ctx, "breachstore import", root, func(ctx context.Context, onProgress func(types.ImportProgress)) (*types.ImportStats, error) {
			opts.OnProgress = onProgress
			return importOnce(ctx, opts)
		})
		if lerr := initializeLogging(cmd, args); lerr != nil {
			printError("%v", lerr)
		}
	} else {
		stats, err = importOnce(ctx, opts)
	}

	if stats != nil && (err == nil || errors.Is(err, context.Canceled)) {
		if rerr := render(cmd, output.Import(stats)); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}

	if importDedup && stats.FilesImported > 0 {
		return rebuildOutdated(cmd)
	}
	return nil
}

// importOptions builds ingest options from the config and the flags.
func importOptions(cmd *cobra.Command, root string) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.StoreRoot = cfg.StoreDir
	opts.ImportRoot = root
	opts.MoveDone = cfg.MoveDone
	opts.ChunkLines = cfg.ChunkLines
	if len(cfg.PairSeparators) > 0 {
		opts.PairSeparators = cfg.PairSeparators
	}
	if len(cfg.Exclude) > 0 {
		opts.Exclude = cfg.Exclude
	}

	if cmd.Flags().Changed("move-done") {
		opts.MoveDone = importMoveDone
	}
	if importChunkLines > 0 {
		opts.ChunkLines = importChunkLines
	}
	opts.Exclude = append(opts.Exclude, importExclude...)
	return opts
}

// importOnce runs one ingestion and records it in history.
func importOnce(ctx context.Context, opts ingest.Options) (*types.ImportStats, error) {
	engine, err := ingest.New(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats, err := engine.Run(ctx)
	entry := newEntry(history.OpImport, start, err)
	entry.Import = stats
	recordHistory(entry)
	return stats, err
}

// rebuildOutdated rebuilds the unique stores that are stale and renders
// the outcome.
func rebuildOutdated(cmd *cobra.Command) error {
	statuses, err := dedup.Status(cfg.StoreDir)
	if err != nil {
		return err
	}
	kinds := dedup.Outdated(statuses)
	if len(kinds) == 0 {
		return nil
	}
	results, err := dedupKinds(cmd.Context(), kinds)
	if err != nil {
		return err
	}
	if err := render(cmd, output.Dedup(results)); err != nil {
		return err
	}
	return dedupError(results)
}

// showProgress reports whether the interactive progress view is used.
func showProgress() bool {
	return !importNoProgress && !quiet && outputFormat == "pretty" && isTerminal(os.Stderr.Fd())
}
