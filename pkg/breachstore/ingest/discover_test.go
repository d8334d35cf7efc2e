package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.write(t, "b.txt", "")
	f.write(t, "a/z.TAR.GZ", "")
	f.write(t, "a/readme.pdf", "")
	f.write(t, "a/_done/old.txt", "")
	f.write(t, "skip/me.txt", "")
	f.write(t, "c.7z", "")

	got, err := Discover(context.Background(), f.imports, []string{"**/_done/**", "skip/**", "*.7z"})
	require.NoError(t, err)

	want := []string{
		filepath.Join(f.imports, "a", "z.TAR.GZ"),
		filepath.Join(f.imports, "b.txt"),
	}
	assert.Equal(t, want, got)
}

func TestDiscoverEdgeCases(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	got, err := Discover(context.Background(), f.imports, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Discover(context.Background(), filepath.Join(f.imports, "missing"), nil)
	require.ErrorIs(t, err, ErrNoImportRoot)

	_, err = Discover(context.Background(), f.imports, []string{"[unclosed"})
	require.Error(t, err)

	file := f.write(t, "single.bin", "")
	got, err = Discover(context.Background(), file, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, got)
}

func TestDiscoverSkipsSymlinks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	target := f.write(t, "real.txt", "")
	require.NoError(t, os.Symlink(target, filepath.Join(f.imports, "link.txt")))

	got, err := Discover(context.Background(), f.imports, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{target}, got)
}

func TestForcedKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   types.Kind
		forced bool
	}{
		{path: "/in/users/a.txt", want: types.KindUser, forced: true},
		{path: "/in/PASSWORDS/a.txt", want: types.KindPassword, forced: true},
		{path: `C:\in\emails\a.txt`, want: types.KindEmail, forced: true},
		{path: "/in/hashes/x/a.txt", want: types.KindHash, forced: true},
		{path: "/in/hashes/users/a.txt", want: types.KindUser, forced: true},
		{path: "/in/userslist/a.txt"},
		{path: "/in/hash/a.txt"},
		{path: "/in/a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := ForcedKind(tt.path)
			assert.Equal(t, tt.forced, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
