package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/dedup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/history"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/tuner"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup [kind...]",
	Short: "Rebuild the sorted unique stores",
	Long: `Rebuild unique/<kind>s.txt from raw/<kind>s.txt with the system sort.

Without arguments every kind is rebuilt. Kinds are user, password, email
and hash (plural forms are accepted). The sort buffer size and thread
count are derived from the available memory and CPU cores unless
sort.buffer or sort.parallel are set.

Examples:
  breachstore dedup                 # All kinds
  breachstore dedup password hash   # Only these kinds
  breachstore dedup --outdated      # Only kinds whose unique store is stale`,
	RunE: runDedup,
}

var dedupOutdated bool

func init() {
	dedupCmd.Flags().BoolVar(&dedupOutdated, "outdated", false, "only rebuild kinds that are outdated")
	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	kinds, err := parseKinds(args)
	if err != nil {
		return err
	}

	if dedupOutdated {
		statuses, err := dedup.Status(cfg.StoreDir)
		if err != nil {
			return err
		}
		outdated := dedup.Outdated(statuses)
		filtered := kinds[:0]
		for _, k := range kinds {
			if slices.Contains(outdated, k) {
				filtered = append(filtered, k)
			}
		}
		kinds = filtered
		if len(kinds) == 0 {
			printInfo("All unique stores are up to date.")
			return nil
		}
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

// newDedupEngine returns an engine using the configured sort overrides.
func newDedupEngine() (*dedup.Engine, error) {
	sortCfg := tuner.Auto(cfg.Sort.Buffer, cfg.Sort.Parallel)
	printVerbose("sort %v", sortCfg.Args())
	return dedup.New(dedup.Options{StoreRoot: cfg.StoreDir, Sort: sortCfg})
}

// dedupKinds rebuilds kinds and records the run in history. Rebuilding
// every kind holds the store lock once for the whole run.
func dedupKinds(ctx context.Context, kinds []types.Kind) (map[types.Kind]dedup.Result, error) {
	engine, err := newDedupEngine()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var results map[types.Kind]dedup.Result
	if len(kinds) == len(types.Kinds) {
		results = engine.All(ctx)
	} else {
		results = make(map[types.Kind]dedup.Result, len(kinds))
		for _, k := range kinds {
			results[k] = engine.Kind(ctx, k)
		}
	}

	entry := newEntry(history.OpDedup, start, dedupError(results))
	for _, k := range types.Kinds {
		res, ok := results[k]
		if !ok {
			continue
		}
		entry.Dedup = append(entry.Dedup, history.KindResult{
			Kind:    k,
			OK:      res.OK,
			Message: res.Message,
			Elapsed: res.Elapsed,
		})
	}
	recordHistory(entry)
	return results, nil
}

// dedupError returns an error naming how many kinds failed, or nil.
func dedupError(results map[types.Kind]dedup.Result) error {
	failed := 0
	for _, res := range results {
		if !res.OK {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("dedup failed for %d of %d kinds", failed, len(results))
}
