// Package logging is the process-wide logger for breachstore.
//
// Every package obtains a component logger once:
//
//	var logger = logging.Get("ingest")
//
// Until Init is called loggers discard their output, so library code and
// tests never need to configure anything. The CLI calls Init with the
// [logging] config section, which routes records to a rotating file under
// the XDG state directory, optionally mirrors them to stderr, and in TUI
// mode keeps the most recent records in a ring buffer for the progress view.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned for an unrecognized level name.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name. "warning" is accepted for warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default level for all components.
	Level string

	// Path is the log file. Empty uses DefaultLogPath.
	Path string

	Rotation RotationConfig

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel mirrors records at or above this level to stderr.
	// Empty disables console output.
	ConsoleLevel string

	// TUIMode suppresses console output and keeps recent records in a
	// ring buffer (see Buffer).
	TUIMode bool
}

// Entry is one record kept in the TUI ring buffer.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

// Logger is a component logger. It is safe for concurrent use.
type Logger struct {
	component string
	level     Level
	file      *log.Logger
	console   *log.Logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...any) { l.emit(LevelDebug, msg, keyvals) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...any) { l.emit(LevelInfo, msg, keyvals) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...any) { l.emit(LevelWarn, msg, keyvals) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...any) { l.emit(LevelError, msg, keyvals) }

// With returns a logger that adds keyvals to every record.
func (l *Logger) With(keyvals ...any) *Logger {
	child := &Logger{
		component: l.component,
		level:     l.level,
		file:      l.file.With(keyvals...),
	}
	if l.console != nil {
		child.console = l.console.With(keyvals...)
	}
	return child
}

func (l *Logger) emit(level Level, msg string, keyvals []any) {
	write(l.file, level, msg, keyvals)
	if l.console != nil {
		write(l.console, level, msg, keyvals)
	}
	if level >= l.level {
		global.record(Entry{Time: time.Now(), Level: level, Component: l.component, Message: msg})
	}
}

func write(dst *log.Logger, level Level, msg string, keyvals []any) {
	switch level {
	case LevelDebug:
		dst.Debug(msg, keyvals...)
	case LevelInfo:
		dst.Info(msg, keyvals...)
	case LevelWarn:
		dst.Warn(msg, keyvals...)
	case LevelError:
		dst.Error(msg, keyvals...)
	}
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	console     bool
	consoleLvl  Level
	buffer      *Buffer
	loggers     map[string]*Logger
}

var global = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// record appends e to the ring buffer when one is active.
func (s *state) record(e Entry) {
	s.mu.RLock()
	buf := s.buffer
	s.mu.RUnlock()
	if buf != nil {
		buf.Add(e)
	}
}

// Init configures the logging system. Calling it again replaces the
// previous configuration; loggers obtained earlier are rebuilt in place.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for name, raw := range cfg.Components {
		lvl, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", name, err)
		}
		components[name] = lvl
	}

	var consoleLvl Level
	console := cfg.ConsoleLevel != "" && !cfg.TUIMode
	if console {
		if consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		_ = global.writer.Close()
	}
	global.writer = writer
	global.level = level
	global.components = components
	global.console = console
	global.consoleLvl = consoleLvl
	global.buffer = nil
	if cfg.TUIMode {
		global.buffer = NewBuffer(DefaultBufferSize)
	}
	global.initialized = true

	for name, l := range global.loggers {
		*l = *build(name)
	}
	return nil
}

// Get returns the logger for component, creating it on first use.
func Get(component string) *Logger {
	global.mu.RLock()
	l, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return l
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	if l, ok := global.loggers[component]; ok {
		return l
	}
	l = build(component)
	global.loggers[component] = l
	return l
}

// build creates a logger from the current state. Caller holds global.mu.
func build(component string) *Logger {
	level := global.level
	if lvl, ok := global.components[component]; ok {
		level = lvl
	}

	if !global.initialized {
		return &Logger{
			component: component,
			level:     level,
			file:      log.NewWithOptions(io.Discard, log.Options{Level: level.charm(), Prefix: component}),
		}
	}

	l := &Logger{
		component: component,
		level:     level,
		file: log.NewWithOptions(global.writer, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if global.console {
		l.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           global.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return l
}

// Close flushes the log file and returns every logger to discard mode.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}
	global.initialized = false
	global.buffer = nil
	global.components = make(map[string]Level)
	global.level = LevelInfo
	for name, l := range global.loggers {
		*l = *build(name)
	}
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// TUIBuffer returns the ring buffer, or nil outside TUI mode.
func TUIBuffer() *Buffer {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.buffer
}

// DefaultLogPath returns $XDG_STATE_HOME/breachstore/breachstore.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "breachstore", "breachstore.log")
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
