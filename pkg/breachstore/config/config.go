package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// HistoryConfig configures the run history kept under the store.
type HistoryConfig struct {
	Enabled       bool `mapstructure:"enabled" yaml:"enabled"`
	RetentionDays int  `mapstructure:"retention_days" yaml:"retention_days"`
}

// SortConfig overrides the tuned arguments of the external sort.
// Zero values let the tuner decide.
type SortConfig struct {
	Buffer   string `mapstructure:"buffer" yaml:"buffer"`
	Parallel int    `mapstructure:"parallel" yaml:"parallel"`
}

// WatchConfig configures the import folder watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Dedup    bool          `mapstructure:"dedup" yaml:"dedup"`
}

// Config is the resolved breachstore configuration.
type Config struct {
	StoreDir       string        `mapstructure:"store_dir" yaml:"store_dir"`
	ImportDir      string        `mapstructure:"import_dir" yaml:"import_dir"`
	PairSeparators []string      `mapstructure:"pair_separators" yaml:"pair_separators"`
	ChunkLines     int           `mapstructure:"chunk_lines" yaml:"chunk_lines"`
	MoveDone       bool          `mapstructure:"move_done" yaml:"move_done"`
	Exclude        []string      `mapstructure:"exclude" yaml:"exclude"`
	MaxHits        int           `mapstructure:"max_hits" yaml:"max_hits"`
	Theme          string        `mapstructure:"theme" yaml:"theme"`
	Sort           SortConfig    `mapstructure:"sort" yaml:"sort"`
	Watch          WatchConfig   `mapstructure:"watch" yaml:"watch"`
	History        HistoryConfig `mapstructure:"history" yaml:"history"`
	Logging        LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// New returns a viper instance with defaults, BREACHSTORE_ environment
// binding and, when present, the config file. An explicit file that does
// not exist is an error; a missing default file is not.
func New(file string) (*viper.Viper, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("BREACHSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store_dir", filepath.Join(DataDir(), "store"))
	v.SetDefault("import_dir", filepath.Join(DataDir(), "imports"))
	v.SetDefault("pair_separators", DefaultPairSeparators)
	v.SetDefault("chunk_lines", DefaultChunkLines)
	v.SetDefault("move_done", false)
	v.SetDefault("exclude", DefaultExclude)
	v.SetDefault("max_hits", DefaultMaxHits)
	v.SetDefault("theme", ThemeDark)

	v.SetDefault("sort.buffer", "")
	v.SetDefault("sort.parallel", 0)

	v.SetDefault("watch.debounce", DefaultWatchDebounce)
	v.SetDefault("watch.dedup", false)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"archive": "info",
		"ingest":  "info",
		"dedup":   "info",
		"search":  "info",
		"watch":   "info",
	})
}

// Decode unmarshals v, expands ~ in paths and validates the result.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.StoreDir, err = ExpandPath(cfg.StoreDir); err != nil {
		return nil, err
	}
	if cfg.ImportDir, err = ExpandPath(cfg.ImportDir); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New followed by Decode.
func Load(file string) (*Config, error) {
	v, err := New(file)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.StoreDir == "" {
		return fmt.Errorf("%w: store_dir is empty", ErrInvalid)
	}
	if c.ChunkLines < MinChunkLines || c.ChunkLines > MaxChunkLines {
		return fmt.Errorf("%w: chunk_lines %d outside %d..%d", ErrInvalid, c.ChunkLines, MinChunkLines, MaxChunkLines)
	}
	if c.MaxHits <= 0 {
		return fmt.Errorf("%w: max_hits must be positive", ErrInvalid)
	}
	switch c.Theme {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("%w: theme %q (want %s or %s)", ErrInvalid, c.Theme, ThemeDark, ThemeLight)
	}
	for _, sep := range c.PairSeparators {
		if sep == "" {
			return fmt.Errorf("%w: empty pair separator", ErrInvalid)
		}
	}
	if c.Sort.Parallel < 0 {
		return fmt.Errorf("%w: sort.parallel must not be negative", ErrInvalid)
	}
	return nil
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "breachstore"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "breachstore"), nil
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns $XDG_DATA_HOME/breachstore, the parent of the default
// store and import folders.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "breachstore")
	}
	return filepath.Join(xdg.DataHome, "breachstore")
}

// StateDir returns $XDG_STATE_HOME/breachstore, where logs live.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "breachstore")
	}
	return filepath.Join(xdg.StateHome, "breachstore")
}

// DefaultLogPath returns the default log file.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "breachstore.log")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// WriteDefault writes a commented default config file and returns its
// path. An existing file is left untouched and created is false.
func WriteDefault() (path string, created bool, err error) {
	path, err = ConfigFile()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# breachstore configuration

# Where raw/, unique/, tmp/ and state.json live
store_dir: %s

# Folder scanned by "breachstore import"
import_dir: %s

# Pair separators, tried in order; the first one found in a line splits it
pair_separators: [":", ";", "\t"]

# Lines processed between flushes to the raw stores (%d..%d)
chunk_lines: %d

# Move imported files into a _done folder next to them
move_done: false

# Glob patterns skipped during discovery
exclude:
  - "**/_done/**"

# Maximum search output lines
max_hits: %d

# Output theme: dark or light
theme: dark

# External sort tuning; empty/zero lets breachstore pick from CPU and RAM
sort:
  buffer: ""
  parallel: 0

watch:
  debounce: %s
  # Run dedup after each watched import
  dedup: false

history:
  enabled: true
  retention_days: %d

logging:
  level: info
  # Empty means $XDG_STATE_HOME/breachstore/breachstore.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
    archive: info
    ingest: info
    dedup: info
    search: info
    watch: info
`, filepath.Join(DataDir(), "store"), filepath.Join(DataDir(), "imports"),
		MinChunkLines, MaxChunkLines, DefaultChunkLines, DefaultMaxHits,
		DefaultWatchDebounce, DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}
