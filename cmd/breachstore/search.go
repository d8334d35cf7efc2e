package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/search"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the unique stores for a fixed string",
	Long: `Search the unique stores for a case-sensitive fixed string. Hits are
printed as path:line:value. ripgrep is used when installed; otherwise the
stores are scanned line by line.

Examples:
  breachstore search alice
  breachstore search @example.com --kind email --max-hits 50
  breachstore search hunter2 -o lines`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchKind    string
	searchMaxHits int
)

func init() {
	searchCmd.Flags().StringVarP(&searchKind, "kind", "k", "", "only search this kind")
	searchCmd.Flags().IntVarP(&searchMaxHits, "max-hits", "m", 0, "maximum hits (0 = config max_hits)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	var kind *types.Kind
	if searchKind != "" {
		k, err := types.ParseKind(searchKind)
		if err != nil {
			return err
		}
		kind = &k
	}

	maxHits := cfg.MaxHits
	if searchMaxHits > 0 {
		maxHits = searchMaxHits
	}

	res, err := search.Search(cmd.Context(), cfg.StoreDir, args[0], kind, maxHits)
	if err != nil {
		return err
	}
	printVerbose("searched %d files with %s", len(res.Paths), res.Backend)
	if len(res.Hits) == 0 {
		printInfo("No hits.")
	}
	return render(cmd, output.Search(res))
}
