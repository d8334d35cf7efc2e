package main

import (
	"testing"

	"github.com/jamesainslie/breachstore/pkg/breachstore/config"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name:     "default values",
			input:    config.RotationConfig{MaxSize: "10MB", MaxAge: 30, MaxBackups: 5, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 30, MaxBackups: 5, Daily: true},
		},
		{
			name:     "custom size in gigabytes",
			input:    config.RotationConfig{MaxSize: "1G", MaxAge: 7, MaxBackups: 3},
			expected: logging.RotationConfig{MaxSize: 1024 * 1024 * 1024, MaxAge: 7, MaxBackups: 3},
		},
		{
			name:     "empty max_size uses default",
			input:    config.RotationConfig{MaxAge: 14, MaxBackups: 2, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 14, MaxBackups: 2, Daily: true},
		},
		{
			name:     "invalid max_size uses default",
			input:    config.RotationConfig{MaxSize: "invalid", MaxAge: 21, MaxBackups: 4},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxAge: 21, MaxBackups: 4},
		},
		{
			name:     "zero max_size uses default",
			input:    config.RotationConfig{MaxSize: "0"},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRotationConfig(tt.input); got != tt.expected {
				t.Errorf("parseRotationConfig() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	c := &config.Config{Logging: config.LoggingConfig{
		Level:      "info",
		Path:       "/tmp/bs.log",
		Components: map[string]string{"dedup": "warn"},
	}}

	tests := []struct {
		name           string
		verbose, quiet bool
		tui            bool
		wantLevel      string
		wantConsole    string
		wantComponents bool
	}{
		{name: "default", wantLevel: "info", wantConsole: "warn", wantComponents: true},
		{name: "verbose", verbose: true, wantLevel: "debug", wantConsole: "debug"},
		{name: "quiet", quiet: true, wantLevel: "info", wantComponents: true},
		{name: "tui", tui: true, wantLevel: "info", wantConsole: "warn", wantComponents: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose, quiet = tt.verbose, tt.quiet
			t.Cleanup(func() { verbose, quiet = false, false })

			got := loggingConfig(c, tt.tui)
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got.Level, tt.wantLevel)
			}
			if got.ConsoleLevel != tt.wantConsole {
				t.Errorf("ConsoleLevel = %q, want %q", got.ConsoleLevel, tt.wantConsole)
			}
			if (got.Components != nil) != tt.wantComponents {
				t.Errorf("Components = %v, want present=%v", got.Components, tt.wantComponents)
			}
			if got.TUIMode != tt.tui {
				t.Errorf("TUIMode = %v, want %v", got.TUIMode, tt.tui)
			}
			if got.Path != "/tmp/bs.log" {
				t.Errorf("Path = %q", got.Path)
			}
		})
	}
}
