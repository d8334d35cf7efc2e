package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const debounce = 50 * time.Millisecond

type harness struct {
	root   string
	runs   atomic.Int32
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{root: t.TempDir(), done: make(chan error, 1)}
	opts := Options{
		Root:     h.root,
		Debounce: debounce,
		Run: func(context.Context) error {
			h.runs.Add(1)
			return nil
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(h.stop(t))

	// Let the initial watches register.
	time.Sleep(20 * time.Millisecond)
	return h
}

func (h *harness) stop(t *testing.T) func() {
	return func() {
		h.cancel()
		select {
		case err := <-h.done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	}
}

func (h *harness) write(t *testing.T, rel string) {
	t.Helper()
	path := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("a:b\n"), 0o644))
}

func TestWatchDebouncesBurst(t *testing.T) {
	t.Parallel()
	h := start(t, nil)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		h.write(t, name)
	}

	require.Eventually(t, func() bool { return h.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * debounce)
	assert.Equal(t, int32(1), h.runs.Load())
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	t.Parallel()
	h := start(t, nil)

	require.NoError(t, os.Mkdir(filepath.Join(h.root, "batch"), 0o755))
	require.Eventually(t, func() bool { return h.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	before := h.runs.Load()

	// Give the new watch time to register before writing into it.
	time.Sleep(20 * time.Millisecond)
	h.write(t, "batch/x.txt")
	require.Eventually(t, func() bool { return h.runs.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchSkipsPaths(t *testing.T) {
	t.Parallel()

	skip := func(p string) bool { return strings.Contains(p, string(filepath.Separator)+"_done") }
	h := start(t, func(o *Options) { o.Skip = skip })

	h.write(t, "_done.txt")
	time.Sleep(4 * debounce)
	assert.Zero(t, h.runs.Load())

	h.write(t, "real.txt")
	require.Eventually(t, func() bool { return h.runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchInitialRunAndErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	h := start(t, func(o *Options) {
		o.Initial = true
		o.Run = func(context.Context) error {
			calls.Add(1)
			return errors.New("boom")
		}
	})

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// A failed run does not stop the watcher.
	h.write(t, "again.txt")
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }

	_, err := New(Options{Root: t.TempDir()})
	require.ErrorIs(t, err, ErrNoRun)

	_, err = New(Options{Root: filepath.Join(t.TempDir(), "missing"), Run: noop})
	require.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(Options{Root: file, Run: noop})
	require.Error(t, err)

	w, err := New(Options{Root: t.TempDir(), Run: noop})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.opts.Debounce)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
