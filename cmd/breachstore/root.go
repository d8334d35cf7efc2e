package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var (
	cfgFile string
	verbose bool
	quiet   bool

	// cfg is the resolved configuration, set by bootstrap.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "breachstore",
		Short: "Import, deduplicate and search breach dumps",
		Long: `breachstore ingests credential dumps from an import folder, classifies
every value as a user name, password, email address or hash, and keeps
one raw and one sorted unique store per kind.

Examples:
  breachstore import                 # Import new files from the import folder
  breachstore import ~/dl/dump.7z    # Import a single file
  breachstore dedup                  # Rebuild every unique store
  breachstore status                 # Show which stores are outdated
  breachstore search alice --kind user
  breachstore hash 5f4dcc3b5aa765d61d8327deb882cf99
  breachstore watch --dedup          # Import whenever the folder changes`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/breachstore/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "store directory (overrides store_dir)")
	rootCmd.PersistentFlags().String("imports", "", "import directory (overrides import_dir)")
	rootCmd.PersistentFlags().String("theme", "", "output theme: dark or light")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "pretty", "output format: pretty, plain, tsv, csv, json, yaml, lines, null, template")
	rootCmd.PersistentFlags().StringVar(&templateStr, "template", "", "Go template for --output template")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr unless quiet mode is enabled.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
