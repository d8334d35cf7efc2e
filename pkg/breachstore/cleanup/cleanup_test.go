package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populate(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "imports")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "_done", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "batch"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_done", "deep", "b.gz"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "batch"), filepath.Join(root, "link")))
	return root
}

func TestCleanImports(t *testing.T) {
	t.Parallel()

	root := populate(t)
	res, err := CleanImports(context.Background(), root, nil)
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Equal(t, 2, res.DeletedFiles) // a.txt and the symlink
	assert.Equal(t, 2, res.DeletedDirs)

	assert.DirExists(t, root)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanImportsCountsFailures(t *testing.T) {
	t.Parallel()

	root := populate(t)
	failing := func(ctx context.Context, path string) error {
		if filepath.Base(path) == "batch" {
			return errors.New("busy")
		}
		return Delete(ctx, path)
	}

	res, err := CleanImports(context.Background(), root, failing)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.DeletedDirs)
	assert.DirExists(t, filepath.Join(root, "batch"))
}

func TestCleanImportsInvalidRoot(t *testing.T) {
	t.Parallel()

	_, err := CleanImports(context.Background(), "  ", nil)
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = CleanImports(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = CleanImports(context.Background(), file, nil)
	require.ErrorIs(t, err, ErrNotDir)
	assert.FileExists(t, file)
}

func TestCleanImportsQuotedPath(t *testing.T) {
	t.Parallel()

	root := populate(t)
	res, err := CleanImports(context.Background(), ` "`+root+`" `, nil)
	require.NoError(t, err)
	assert.Equal(t, root, res.Root)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "d")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o755))
	require.NoError(t, Delete(context.Background(), dir))
	assert.NoDirExists(t, dir)

	// Removing something already gone is not an error.
	require.NoError(t, Delete(context.Background(), dir))
}
