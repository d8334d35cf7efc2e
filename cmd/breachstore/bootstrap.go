package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// defaultRotationSize is used when logging.rotation.max_size is empty or invalid.
const defaultRotationSize = 10 * types.MiB

// configUsed is the config file that was read, empty when none was found.
var configUsed string

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"store":   "store_dir",
	"imports": "import_dir",
	"theme":   "theme",
}

// bootstrap loads the configuration and initializes logging before any
// command runs.
func bootstrap(cmd *cobra.Command, args []string) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	c, err := config.Decode(v)
	if err != nil {
		return err
	}
	cfg = c
	configUsed = v.ConfigFileUsed()

	return initializeLogging(cmd, args)
}

// bindFlags lets explicitly set flags override the config file.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// initializeLogging configures the logging package from cfg.
func initializeLogging(_ *cobra.Command, _ []string) error {
	return logging.Init(loggingConfig(cfg, false))
}

// enableTUILogging switches logging to the in-memory buffer shown by the
// progress view.
func enableTUILogging() error {
	return logging.Init(loggingConfig(cfg, true))
}

// loggingConfig maps the config file's logging section to logging.Config.
// Warnings reach stderr by default; --verbose adds debug records and
// --quiet silences the console.
func loggingConfig(c *config.Config, tui bool) logging.Config {
	lc := logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Rotation:   parseRotationConfig(c.Logging.Rotation),
		Components: c.Logging.Components,
		TUIMode:    tui,
	}
	switch {
	case quiet:
	case verbose:
		lc.Level = "debug"
		lc.Components = nil
		lc.ConsoleLevel = "debug"
	default:
		lc.ConsoleLevel = "warn"
	}
	return lc
}

// parseRotationConfig converts the rotation settings. An empty or invalid
// max_size falls back to 10MB.
func parseRotationConfig(r config.RotationConfig) logging.RotationConfig {
	size, err := types.ParseSize(r.MaxSize)
	if err != nil || size <= 0 {
		size = defaultRotationSize
	}
	return logging.RotationConfig{
		MaxSize:    size,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
		Daily:      r.Daily,
	}
}
