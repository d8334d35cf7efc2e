package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/dedup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/ingest"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
	"github.com/jamesainslie/breachstore/pkg/breachstore/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Import automatically when files land in the import folder",
	Long: `Watch the import folder and run an import once no file event arrived
for the debounce period. An import also runs at start. With --dedup the
outdated unique stores are rebuilt after every import that added files.

Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchDebounce time.Duration
	watchDedup    bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before an import (0 = config)")
	watchCmd.Flags().BoolVar(&watchDedup, "dedup", false, "rebuild outdated unique stores after each import")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	debounce := cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}
	withDedup := cfg.Watch.Dedup || watchDedup
	opts := importOptions(cmd, root)

	w, err := watch.New(watch.Options{
		Root:     root,
		Debounce: debounce,
		Skip:     isDonePath,
		Initial:  true,
		Run: func(ctx context.Context) error {
			return watchPass(ctx, opts, withDedup)
		},
	})
	if err != nil {
		return err
	}

	printInfo("Watching %s (Ctrl+C to stop)", root)
	return w.Run(cmd.Context())
}

// watchPass imports once and, when files were added and withDedup is
// set, rebuilds the outdated unique stores.
func watchPass(ctx context.Context, opts ingest.Options, withDedup bool) error {
	stats, err := importOnce(ctx, opts)
	if err != nil {
		return err
	}
	if stats.FilesImported == 0 {
		printVerbose("no new files among %d", stats.FilesSeen)
		return nil
	}
	printInfo("%s imported %d of %d files, %s values",
		time.Now().Format(time.TimeOnly), stats.FilesImported, stats.FilesSeen, types.FormatCount(stats.TotalValues()))
	for _, fe := range stats.Errors {
		printInfo("  failed: %s: %s", fe.Path, fe.Error)
	}

	if !withDedup {
		return nil
	}
	statuses, err := dedup.Status(cfg.StoreDir)
	if err != nil {
		return err
	}
	kinds := dedup.Outdated(statuses)
	if len(kinds) == 0 {
		return nil
	}
	results, err := dedupKinds(ctx, kinds)
	if err != nil {
		return err
	}
	if err := dedupError(results); err != nil {
		return err
	}
	printInfo("%s rebuilt %d unique stores", time.Now().Format(time.TimeOnly), len(kinds))
	return nil
}

// isDonePath reports whether path lies in or is a done folder.
func isDonePath(path string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), ingest.DoneDirName)
}
