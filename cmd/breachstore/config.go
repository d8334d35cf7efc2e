package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage breachstore configuration settings.

Configuration is loaded from:
  1. --config, when given
  2. $XDG_CONFIG_HOME/breachstore/config.yaml (if set)
  3. ~/.config/breachstore/config.yaml

Environment variables override the file using the BREACHSTORE_ prefix:
  BREACHSTORE_STORE_DIR=/data/store
  BREACHSTORE_SORT_PARALLEL=8
  BREACHSTORE_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file",
	Long: `Open the configuration file in your editor ($VISUAL, then $EDITOR,
then vi). A default file is created first when none exists.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return render(cmd, configResult(cfg, configUsed))
}

// configResult lists the resolved settings.
func configResult(c *config.Config, file string) *output.Result {
	if file == "" {
		file = "(defaults, no file found)"
	}
	r := &output.Result{Command: "config", Title: "Configuration", Data: c}
	r.AddField("config file", file)
	r.AddField("store_dir", c.StoreDir)
	r.AddField("import_dir", c.ImportDir)
	r.AddField("pair_separators", strconv.Quote(strings.Join(c.PairSeparators, " ")))
	r.AddField("chunk_lines", strconv.Itoa(c.ChunkLines))
	r.AddField("move_done", strconv.FormatBool(c.MoveDone))
	r.AddField("exclude", strings.Join(c.Exclude, ", "))
	r.AddField("max_hits", strconv.Itoa(c.MaxHits))
	r.AddField("theme", c.Theme)
	r.AddField("sort.buffer", orAuto(c.Sort.Buffer))
	r.AddField("sort.parallel", orAuto(parallelString(c.Sort.Parallel)))
	r.AddField("watch.debounce", c.Watch.Debounce.String())
	r.AddField("watch.dedup", strconv.FormatBool(c.Watch.Dedup))
	r.AddField("history.enabled", strconv.FormatBool(c.History.Enabled))
	r.AddField("history.retention_days", strconv.Itoa(c.History.RetentionDays))
	r.AddField("logging.level", c.Logging.Level)
	r.AddField("logging.path", orDefault(c.Logging.Path, config.DefaultLogPath()))

	for _, name := range []string{"BREACHSTORE_STORE_DIR", "BREACHSTORE_IMPORT_DIR", "BREACHSTORE_THEME", "BREACHSTORE_LOGGING_LEVEL"} {
		if val := os.Getenv(name); val != "" {
			r.Warnings = append(r.Warnings, fmt.Sprintf("overridden by %s=%s", name, val))
		}
	}
	return r
}

func parallelString(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func orAuto(s string) string {
	return orDefault(s, "auto")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if cfgFile != "" {
		path = cfgFile
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !created {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'breachstore config edit' to modify it.")
		return nil
	}
	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		p, err := config.ConfigFile()
		if err != nil {
			return err
		}
		path = p
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	if _, err := os.Stat(path); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
