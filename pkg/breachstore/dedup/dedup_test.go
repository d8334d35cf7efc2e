package dedup

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/breachstore/pkg/breachstore/ledger"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/tuner"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

func requireSort(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sort"); err != nil {
		t.Skip("sort not available")
	}
}

func newEngine(t *testing.T, root string) *Engine {
	t.Helper()
	e, err := New(Options{StoreRoot: root, Sort: tuner.SortConfig{Parallel: 1, Buffer: "16M"}})
	require.NoError(t, err)
	return e
}

func seed(t *testing.T, root string, kind types.Kind, values ...string) store.Layout {
	t.Helper()
	layout := store.New(root)
	require.NoError(t, layout.Ensure())
	require.NoError(t, layout.AppendRaw(kind, values))
	return layout
}

func TestKindBuildsSortedUniqueStore(t *testing.T) {
	t.Parallel()
	requireSort(t)

	root := t.TempDir()
	layout := seed(t, root, types.KindUser, "bob", "alice", "bob", "Alice", "alice")

	res := newEngine(t, root).Kind(context.Background(), types.KindUser)
	require.True(t, res.OK, res.Message)
	require.NoError(t, res.Err)
	assert.Equal(t, layout.UniquePath(types.KindUser), res.Target)

	data, err := os.ReadFile(res.Target)
	require.NoError(t, err)
	// Byte order and case sensitive.
	assert.Equal(t, "Alice\nalice\nbob\n", string(data))

	st := ledger.Load(root)
	assert.False(t, st.LastDedup(types.KindUser).IsZero())
	assert.True(t, st.LastDedup(types.KindPassword).IsZero())
}

func TestKindIsIdempotent(t *testing.T) {
	t.Parallel()
	requireSort(t)

	root := t.TempDir()
	seed(t, root, types.KindHash, "b", "a", "b")
	e := newEngine(t, root)

	first := e.Kind(context.Background(), types.KindHash)
	require.True(t, first.OK, first.Message)
	before, err := os.ReadFile(first.Target)
	require.NoError(t, err)

	second := e.Kind(context.Background(), types.KindHash)
	require.True(t, second.OK, second.Message)
	after, err := os.ReadFile(second.Target)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestKindErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		res := newEngine(t, t.TempDir()).Kind(context.Background(), types.KindEmail)
		assert.False(t, res.OK)
		require.ErrorIs(t, res.Err, ErrNoSource)
	})

	t.Run("invalid kind", func(t *testing.T) {
		t.Parallel()
		res := newEngine(t, t.TempDir()).Kind(context.Background(), types.Kind("pin"))
		require.ErrorIs(t, res.Err, types.ErrInvalidKind)
	})

	t.Run("missing sort binary", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		seed(t, root, types.KindUser, "x")
		e, err := New(Options{StoreRoot: root, SortBinary: "breachstore-no-such-sort"})
		require.NoError(t, err)
		res := e.Kind(context.Background(), types.KindUser)
		require.ErrorIs(t, res.Err, ErrSortMissing)
		assert.True(t, ledger.Load(root).LastDedup(types.KindUser).IsZero())
	})

	t.Run("sort failure carries stderr", func(t *testing.T) {
		t.Parallel()
		requireSort(t)
		root := t.TempDir()
		seed(t, root, types.KindUser, "x")
		e, err := New(Options{StoreRoot: root, Sort: tuner.SortConfig{Parallel: 1, Buffer: "not-a-size"}})
		require.NoError(t, err)
		res := e.Kind(context.Background(), types.KindUser)
		require.ErrorIs(t, res.Err, ErrSortFailed)
		assert.NotEmpty(t, strings.TrimPrefix(res.Message, ErrSortFailed.Error()+": "))
		assert.LessOrEqual(t, len(res.Message), maxStderr+len(ErrSortFailed.Error())+2)
	})

	t.Run("locked store", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		seed(t, root, types.KindUser, "x")
		lock, err := store.New(root).Lock()
		require.NoError(t, err)
		defer lock.Release()

		res := newEngine(t, root).Kind(context.Background(), types.KindUser)
		require.ErrorIs(t, res.Err, store.ErrLocked)

		all := newEngine(t, root).All(context.Background())
		for _, k := range types.Kinds {
			require.ErrorIs(t, all[k].Err, store.ErrLocked)
		}
	})
}

func TestAllRunsEveryKind(t *testing.T) {
	t.Parallel()
	requireSort(t)

	root := t.TempDir()
	seed(t, root, types.KindUser, "u2", "u1", "u2")
	seed(t, root, types.KindPassword, "p")

	results := newEngine(t, root).All(context.Background())
	require.Len(t, results, len(types.Kinds))

	assert.True(t, results[types.KindUser].OK)
	assert.True(t, results[types.KindPassword].OK)
	assert.ErrorIs(t, results[types.KindEmail].Err, ErrNoSource)
	assert.ErrorIs(t, results[types.KindHash].Err, ErrNoSource)
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()
	requireSort(t)

	root := t.TempDir()

	statuses, err := Status(root)
	require.NoError(t, err)
	assert.Empty(t, Outdated(statuses))
	assert.False(t, statuses[types.KindUser].RawExists)

	// Raw without unique.
	layout := seed(t, root, types.KindUser, "a", "b")
	st := ledger.Load(root)
	st.SetLastImport(time.Now().Add(-time.Minute))
	require.NoError(t, ledger.Save(root, st))

	statuses, err = Status(root)
	require.NoError(t, err)
	assert.Equal(t, []types.Kind{types.KindUser}, Outdated(statuses))
	assert.False(t, statuses[types.KindUser].UniqueExists)

	// Fresh after dedup.
	res := newEngine(t, root).Kind(context.Background(), types.KindUser)
	require.True(t, res.OK, res.Message)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(layout.RawPath(types.KindUser), past, past))

	statuses, err = Status(root)
	require.NoError(t, err)
	us := statuses[types.KindUser]
	assert.False(t, us.Outdated)
	assert.True(t, us.UniqueExists)
	assert.Positive(t, us.UniqueSize)

	// A later import makes it stale again.
	st = ledger.Load(root)
	st.SetLastImport(time.Now().Add(time.Minute))
	require.NoError(t, ledger.Save(root, st))

	statuses, err = Status(root)
	require.NoError(t, err)
	assert.True(t, statuses[types.KindUser].Outdated)

	// So does a raw store newer than the unique one.
	st = ledger.Load(root)
	st.SetLastImport(past)
	require.NoError(t, ledger.Save(root, st))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(layout.RawPath(types.KindUser), future, future))

	statuses, err = Status(root)
	require.NoError(t, err)
	assert.True(t, statuses[types.KindUser].Outdated)
}

func TestNewFillsDefaults(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoStoreRoot)

	e, err := New(Options{StoreRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultSortBinary, e.opts.SortBinary)
	assert.Positive(t, e.opts.Sort.Parallel)
	assert.NotEmpty(t, e.opts.Sort.Buffer)
}
