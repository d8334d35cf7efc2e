package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the folders and files breachstore uses",
	Args:  cobra.NoArgs,
	RunE:  runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	return render(cmd, output.Paths(pathFields()))
}

// pathFields lists every location derived from the configuration.
func pathFields() []output.Field {
	layout := store.New(cfg.StoreDir)

	configPath := cfgFile
	if configPath == "" {
		configPath, _ = config.ConfigFile()
	}
	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}

	fields := []output.Field{
		{Label: "Config", Value: configPath},
		{Label: "Imports", Value: cfg.ImportDir},
		{Label: "Store", Value: layout.Root},
	}
	for _, k := range types.Kinds {
		fields = append(fields, output.Field{Label: "Raw " + k.Plural(), Value: layout.RawPath(k)})
	}
	for _, k := range types.Kinds {
		fields = append(fields, output.Field{Label: "Unique " + k.Plural(), Value: layout.UniquePath(k)})
	}
	return append(fields,
		output.Field{Label: "Temp", Value: layout.TmpPath()},
		output.Field{Label: "State", Value: layout.StatePath()},
		output.Field{Label: "History", Value: layout.HistoryPath()},
		output.Field{Label: "Log", Value: logPath},
	)
}
