package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

func countLogs(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".log") {
			n++
		}
	}
	return n
}

func TestRotatingWriterRotatesBySize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "size.log"), logging.RotationConfig{MaxSize: 256})
	require.NoError(t, err)

	line := []byte(strings.Repeat("x", 60) + "\n")
	for range 20 {
		_, err := w.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	assert.GreaterOrEqual(t, countLogs(t, dir, "size"), 2)

	info, err := os.Stat(filepath.Join(dir, "size.log"))
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(256))
}

func TestRotatingWriterKeepsMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := logging.NewRotatingWriter(filepath.Join(dir, "keep.log"), logging.RotationConfig{
		MaxSize:    128,
		MaxBackups: 2,
	})
	require.NoError(t, err)

	line := []byte(strings.Repeat("y", 100) + "\n")
	for range 10 {
		_, err := w.Write(line)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	// Current file plus at most two backups.
	assert.LessOrEqual(t, countLogs(t, dir, "keep"), 3)
}

func TestRotatingWriterPrunesByAge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := filepath.Join(dir, "age.20200101-000000.000000000.log")
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))
	past := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	w, err := logging.NewRotatingWriter(filepath.Join(dir, "age.log"), logging.RotationConfig{MaxAge: 7})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.NoFileExists(t, stale)
}

func TestRotatingWriterWriteAfterClose(t *testing.T) {
	t.Parallel()

	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	require.ErrorIs(t, err, os.ErrClosed)
}
