// Package config loads breachstore settings from the config file, the
// environment and command-line flags.
package config

import "time"

// Default configuration values.
const (
	// DefaultChunkLines is the number of processed lines between raw-store flushes.
	DefaultChunkLines = 200_000

	// MinChunkLines and MaxChunkLines bound chunk_lines.
	MinChunkLines = 10_000
	MaxChunkLines = 2_000_000

	// DefaultMaxHits caps search output lines.
	DefaultMaxHits = 200

	// DefaultRetentionDays is how long run history is kept.
	DefaultRetentionDays = 90

	// DefaultWatchDebounce is the quiet period after the last file event
	// before a watched import starts.
	DefaultWatchDebounce = 5 * time.Second

	// ThemeDark and ThemeLight are the supported output themes.
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultPairSeparators is the pair separator priority list.
var DefaultPairSeparators = []string{":", ";", "\t"}

// DefaultExclude keeps files already moved to a _done folder out of later imports.
var DefaultExclude = []string{"**/_done/**"}
