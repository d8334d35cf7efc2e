package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{in: "debug", want: logging.LevelDebug},
		{in: "INFO", want: logging.LevelInfo},
		{in: "", want: logging.LevelInfo},
		{in: "warning", want: logging.LevelWarn},
		{in: "error", want: logging.LevelError},
		{in: "loud", want: logging.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, logging.ErrInvalidLevel)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// The tests below share the package's global state and must not run in parallel.

func TestGetBeforeInitDiscards(t *testing.T) {
	l := logging.Get("unconfigured")
	require.NotNil(t, l)
	l.Info("nobody hears this")
	assert.Same(t, l, logging.Get("unconfigured"))
}

func TestInitRejectsBadLevels(t *testing.T) {
	dir := t.TempDir()

	err := logging.Init(logging.Config{Level: "nope", Path: filepath.Join(dir, "a.log")})
	require.ErrorIs(t, err, logging.ErrInvalidLevel)

	err = logging.Init(logging.Config{
		Level:      "info",
		Path:       filepath.Join(dir, "b.log"),
		Components: map[string]string{"ingest": "chatty"},
	})
	require.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestLoggerWritesToFileWithComponentLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breachstore.log")

	// Obtained before Init: must pick up the configuration afterwards.
	early := logging.Get("dedup")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "warn",
		Path:       path,
		Components: map[string]string{"dedup": "debug"},
	}))

	early.Debug("sorting raw store", "kind", "email")
	logging.Get("ingest").Info("suppressed by default level")
	logging.Get("ingest").Warn("file failed", "path", "/dumps/x.zip")
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "sorting raw store")
	assert.Contains(t, content, "file failed")
	assert.NotContains(t, content, "suppressed by default level")
}

func TestTUIModeBuffersRecords(t *testing.T) {
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		Path:         filepath.Join(t.TempDir(), "tui.log"),
		ConsoleLevel: "debug",
		TUIMode:      true,
	}))
	defer func() { require.NoError(t, logging.Close()) }()

	buf := logging.TUIBuffer()
	require.NotNil(t, buf)

	l := logging.Get("tui-test")
	l.Debug("below level")
	l.Info("first")
	l.With("k", "v").Warn("second")

	last := buf.Last(10)
	require.Len(t, last, 2)
	assert.Equal(t, "first", last[0].Message)
	assert.Equal(t, logging.LevelWarn, last[1].Level)
	assert.Equal(t, "tui-test", last[1].Component)
}

func TestDefaultLogPath(t *testing.T) {
	p := logging.DefaultLogPath()
	assert.True(t, strings.HasSuffix(p, filepath.Join("breachstore", "breachstore.log")), p)
	assert.Equal(t, p, logging.DefaultConfig().Path)
}
