package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

func TestLoadMissingIsFresh(t *testing.T) {
	t.Parallel()

	st := Load(t.TempDir())
	assert.Empty(t, st.ImportedFiles)
	assert.Zero(t, st.Meta.LastImportTS)
	assert.Len(t, st.Meta.LastDedupTS, len(types.Kinds))
	assert.True(t, st.LastImport().IsZero())
}

func TestLoadCorruptIsFresh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "state.json"), []byte("{not json"), 0o644))

	st := Load(root)
	assert.Empty(t, st.ImportedFiles)
	assert.Len(t, st.Meta.LastDedupTS, len(types.Kinds))
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	partial := `{"meta": {"last_dedup_ts": {"email": 12.5}}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "state.json"), []byte(partial), 0o644))

	st := Load(root)
	require.NotNil(t, st.ImportedFiles)
	assert.Equal(t, 12.5, st.Meta.LastDedupTS["email"])
	assert.Contains(t, st.Meta.LastDedupTS, "hash")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	input := filepath.Join(root, "dump.txt")
	require.NoError(t, os.WriteFile(input, []byte("alice:pw\n"), 0o644))

	st := NewState()
	require.NoError(t, st.MarkImported(input))
	now := time.Now()
	st.SetLastImport(now)
	st.SetLastDedup(types.KindEmail, now)
	require.NoError(t, Save(root, st))

	assert.NoFileExists(t, filepath.Join(root, "state.json.tmp"))

	loaded := Load(root)
	assert.True(t, loaded.IsImported(input))
	assert.Equal(t, st.Meta, loaded.Meta)
	assert.WithinDuration(t, now, loaded.LastImport(), time.Millisecond)
	assert.WithinDuration(t, now, loaded.LastDedup(types.KindEmail), time.Millisecond)
	assert.True(t, loaded.LastDedup(types.KindUser).IsZero())

	// On-disk format keeps the documented field names.
	raw, err := os.ReadFile(filepath.Join(root, "state.json"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "imported_files")
	assert.Contains(t, doc, "meta")
}

func TestIsImportedDetectsChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\n"), 0o644))

	st := NewState()
	assert.False(t, st.IsImported(path))
	require.NoError(t, st.MarkImported(path))
	assert.True(t, st.IsImported(path))

	// Same size, different mtime.
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.False(t, st.IsImported(path))

	require.NoError(t, st.MarkImported(path))
	assert.True(t, st.IsImported(path))

	// Different size, mtime pinned back.
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))
	require.NoError(t, os.Chtimes(path, later, later))
	assert.False(t, st.IsImported(path))

	require.NoError(t, os.Remove(path))
	assert.False(t, st.IsImported(path))
	assert.Error(t, st.MarkImported(path))
}

func TestEpochRoundTrip(t *testing.T) {
	t.Parallel()

	assert.True(t, FromEpoch(0).IsZero())
	ts := time.Unix(1700000000, 250_000_000)
	assert.Equal(t, 1700000000.25, Epoch(ts))
	assert.WithinDuration(t, ts, FromEpoch(Epoch(ts)), time.Microsecond)

	// Matches the float a stat mtime of the same instant serialises to.
	mtime := time.Unix(1712345678, 123456789)
	assert.Equal(t, 1712345678.123456789, Epoch(mtime))
	assert.Equal(t, 1712345678.0, Epoch(time.Unix(1712345678, 0)))
}
