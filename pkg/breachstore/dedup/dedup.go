// Package dedup builds the unique store of each kind from its raw store
// with an external byte-wise sort.
package dedup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/jamesainslie/breachstore/pkg/breachstore/ledger"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/tuner"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var logger = logging.Get("dedup")

// maxStderr bounds the sort stderr kept in a failed Result.
const maxStderr = 4000

// DefaultSortBinary is looked up in PATH when Options.SortBinary is empty.
const DefaultSortBinary = "sort"

var (
	// ErrNoSource is returned when the raw store of a kind does not exist.
	ErrNoSource = errors.New("no source")

	// ErrSortMissing is returned when the sort binary is not in PATH.
	ErrSortMissing = errors.New("sort binary not found in PATH")

	// ErrSortFailed wraps a non-zero exit of the sort process.
	ErrSortFailed = errors.New("sort -u failed")

	// ErrNoStoreRoot is returned when Options.StoreRoot is empty.
	ErrNoStoreRoot = errors.New("store root is required")
)

// Options configures an Engine.
type Options struct {
	StoreRoot string

	// Sort holds the -S and --parallel values. Zero values are filled
	// from the detected system resources.
	Sort tuner.SortConfig

	// SortBinary overrides the sort executable.
	SortBinary string
}

// Result reports the outcome of deduplicating one kind.
type Result struct {
	Kind    types.Kind    `json:"kind" yaml:"kind"`
	OK      bool          `json:"ok" yaml:"ok"`
	Source  string        `json:"source" yaml:"source"`
	Target  string        `json:"target" yaml:"target"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
	Err     error         `json:"-" yaml:"-"`
}

// Engine deduplicates the raw stores of one store root.
type Engine struct {
	opts   Options
	layout store.Layout
}

// New returns an engine for opts.
func New(opts Options) (*Engine, error) {
	if opts.StoreRoot == "" {
		return nil, ErrNoStoreRoot
	}
	if opts.Sort.Parallel <= 0 || opts.Sort.Buffer == "" {
		opts.Sort = tuner.Auto(opts.Sort.Buffer, opts.Sort.Parallel)
	}
	if opts.SortBinary == "" {
		opts.SortBinary = DefaultSortBinary
	}
	return &Engine{opts: opts, layout: store.New(opts.StoreRoot)}, nil
}

// Kind rebuilds the unique store of kind. On success the dedup timestamp
// of kind is recorded in the ledger.
func (e *Engine) Kind(ctx context.Context, kind types.Kind) Result {
	if !kind.Valid() {
		return failed(Result{Kind: kind}, fmt.Errorf("%w: %q", types.ErrInvalidKind, kind))
	}
	lock, err := e.layout.Lock()
	if err != nil {
		return failed(Result{Kind: kind}, err)
	}
	defer lock.Release()

	return e.kind(ctx, kind)
}

// All rebuilds every kind independently; one kind failing does not stop
// the others.
func (e *Engine) All(ctx context.Context) map[types.Kind]Result {
	results := make(map[types.Kind]Result, len(types.Kinds))

	lock, err := e.layout.Lock()
	if err != nil {
		for _, k := range types.Kinds {
			results[k] = failed(Result{Kind: k}, err)
		}
		return results
	}
	defer lock.Release()

	for _, k := range types.Kinds {
		results[k] = e.kind(ctx, k)
	}
	return results
}

func (e *Engine) kind(ctx context.Context, kind types.Kind) Result {
	res := Result{
		Kind:   kind,
		Source: e.layout.RawPath(kind),
		Target: e.layout.UniquePath(kind),
	}
	log := logger.With("kind", string(kind))

	if err := e.layout.Ensure(); err != nil {
		return failed(res, err)
	}
	if _, err := os.Stat(res.Source); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failed(res, fmt.Errorf("%w: %s", ErrNoSource, res.Source))
		}
		return failed(res, err)
	}

	start := time.Now()
	if err := e.sortUnique(ctx, res.Source, res.Target); err != nil {
		res.Elapsed = time.Since(start)
		log.Error("dedup failed", "error", err)
		return failed(res, err)
	}
	res.Elapsed = time.Since(start)

	st := ledger.Load(e.opts.StoreRoot)
	st.SetLastDedup(kind, time.Now())
	if err := ledger.Save(e.opts.StoreRoot, st); err != nil {
		return failed(res, err)
	}

	res.OK = true
	res.Message = res.Target
	log.Info("dedup finished", "target", res.Target, "elapsed", res.Elapsed)
	return res
}

// sortUnique runs LC_ALL=C sort -u over src into dst.
func (e *Engine) sortUnique(ctx context.Context, src, dst string) error {
	bin, err := exec.LookPath(e.opts.SortBinary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSortMissing, e.opts.SortBinary)
	}

	args := append([]string{"-u"}, e.opts.Sort.Args()...)
	args = append(args, "-T", e.layout.TmpPath(), src, "-o", dst)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("running sort", "args", args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := truncate(stderr.String(), maxStderr)
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s", ErrSortFailed, msg)
	}
	return nil
}

func failed(res Result, err error) Result {
	res.OK = false
	res.Err = err
	res.Message = err.Error()
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
