package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/cleanup"
	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/history"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [folder]",
	Short: "Empty the import folder",
	Long: `Delete everything inside the import folder, keeping the folder itself.
The stores are never touched. --yes is required.

With --trash entries are moved to the system trash instead of being
deleted, where supported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

var (
	cleanYes   bool
	cleanTrash bool
)

// errCleanNotConfirmed is returned when clean runs without --yes.
var errCleanNotConfirmed = errors.New("refusing to clean without --yes")

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "confirm deletion")
	cleanCmd.Flags().BoolVar(&cleanTrash, "trash", false, "move entries to the trash instead of deleting")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	root := cfg.ImportDir
	if len(args) == 1 {
		p, err := config.ExpandPath(args[0])
		if err != nil {
			return err
		}
		root = p
	}
	if !cleanYes {
		printInfo("This deletes everything inside %s.", root)
		return errCleanNotConfirmed
	}

	remove := cleanup.Delete
	if cleanTrash {
		remove = cleanup.Trash
	}

	start := time.Now()
	res, err := cleanup.CleanImports(cmd.Context(), root, remove)

	entry := newEntry(history.OpClean, start, err)
	entry.Clean = &history.CleanSummary{
		Root:         res.Root,
		DeletedFiles: res.DeletedFiles,
		DeletedDirs:  res.DeletedDirs,
		Errors:       res.Errors,
		Trashed:      cleanTrash,
	}
	recordHistory(entry)

	if err != nil {
		return err
	}
	return render(cmd, output.Clean(res))
}
