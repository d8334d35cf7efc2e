package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/breachstore/pkg/breachstore/archive"
	"github.com/jamesainslie/breachstore/pkg/breachstore/classify"
	"github.com/jamesainslie/breachstore/pkg/breachstore/ledger"
	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var logger = logging.Get("ingest")

// progressInterval throttles OnProgress callbacks.
const progressInterval = 100 * time.Millisecond

// cancelCheckLines is how often the line loop polls the context.
const cancelCheckLines = 4096

// Engine runs ingestion for one store.
type Engine struct {
	opts   Options
	layout store.Layout

	progress     types.ImportProgress
	lastProgress time.Time
}

// New returns an engine for opts.
func New(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, layout: store.New(opts.StoreRoot)}, nil
}

// Run discovers and imports every new or changed file.
//
// A file whose container cannot be opened or read is counted in
// FilesFailed and left out of the ledger; the run continues with the next
// file. Cancelling ctx stops the run after flushing the current file's
// buffers; the interrupted file is not recorded. The returned stats are
// valid even when err is non-nil.
func (e *Engine) Run(ctx context.Context) (*types.ImportStats, error) {
	start := time.Now()
	stats := types.NewImportStats()
	defer func() { stats.Elapsed = time.Since(start) }()

	lock, err := e.layout.Lock()
	if err != nil {
		return stats, err
	}
	defer lock.Release()

	if err := e.layout.Ensure(); err != nil {
		return stats, err
	}

	paths, err := Discover(ctx, e.opts.ImportRoot, e.opts.Exclude)
	if err != nil {
		return stats, err
	}
	stats.FilesSeen = len(paths)
	e.progress = types.ImportProgress{FilesSeen: len(paths)}
	e.report(true)

	st := ledger.Load(e.opts.StoreRoot)
	log := logger.With("import_root", e.opts.ImportRoot)
	log.Info("import started", "candidates", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		e.progress.CurrentPath = path
		e.report(true)

		if st.IsImported(path) {
			log.Debug("already imported", "path", path)
			e.progress.FilesDone++
			continue
		}

		kind, forced := ForcedKind(path)
		err := e.importFile(ctx, path, kind, forced, stats)
		e.progress.FilesDone++
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err != nil {
			stats.FilesFailed++
			stats.Errors = append(stats.Errors, types.FileError{Path: path, Error: err.Error()})
			log.Warn("file failed", "path", path, "error", err)
			continue
		}

		stats.FilesImported++
		e.progress.FilesImported++
		if forced {
			stats.ForcedModeFiles++
		}

		if err := st.MarkImported(path); err != nil {
			return stats, err
		}
		if err := ledger.Save(e.opts.StoreRoot, st); err != nil {
			return stats, err
		}

		if e.opts.MoveDone {
			moveDone(path)
		}
	}

	if stats.FilesImported > 0 {
		st.SetLastImport(time.Now())
		if err := ledger.Save(e.opts.StoreRoot, st); err != nil {
			return stats, err
		}
	}

	e.progress.CurrentPath = ""
	e.report(true)
	log.Info("import finished",
		"seen", stats.FilesSeen,
		"imported", stats.FilesImported,
		"failed", stats.FilesFailed,
		"lines", stats.LinesProcessed,
		"values", stats.TotalValues())
	return stats, nil
}

// buffers holds classified values per kind between flushes.
type buffers map[types.Kind][]string

func (b buffers) flush(layout store.Layout) error {
	for _, k := range types.Kinds {
		if len(b[k]) == 0 {
			continue
		}
		if err := layout.AppendRaw(k, b[k]); err != nil {
			return err
		}
		b[k] = b[k][:0]
	}
	return nil
}

// importFile streams one file into the raw stores. Values read before a
// mid-file error are still flushed.
func (e *Engine) importFile(ctx context.Context, path string, kind types.Kind, forced bool, stats *types.ImportStats) error {
	src, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	buf := make(buffers, len(types.Kinds))
	pending := 0
	var seen int64

	add := func(k types.Kind, v string) {
		buf[k] = append(buf[k], v)
		stats.PerKind[k]++
		e.progress.Values++
	}

	readErr := src.Each(func(line string) error {
		seen++
		if seen%cancelCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if classify.IsCommentOrEmpty(line) {
			return nil
		}

		if forced {
			v := classify.Forced(line)
			if v == "" {
				return nil
			}
			add(kind, v)
		} else {
			items := classify.Line(line, e.opts.PairSeparators)
			if len(items) == 0 {
				return nil
			}
			for _, it := range items {
				if it.Value != "" && it.Kind.Valid() {
					add(it.Kind, it.Value)
				}
			}
		}

		stats.LinesProcessed++
		e.progress.LinesProcessed++
		pending++
		if pending >= e.opts.ChunkLines {
			pending = 0
			if err := buf.flush(e.layout); err != nil {
				return err
			}
			e.report(false)
		}
		return nil
	})

	if err := buf.flush(e.layout); err != nil {
		return err
	}
	e.report(false)

	if readErr != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), readErr)
	}
	return nil
}

// moveDone moves path into the _done folder beside it. Failures are logged.
func moveDone(path string) {
	dir := filepath.Join(filepath.Dir(path), DoneDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("cannot create done folder", "dir", dir, "error", err)
		return
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		logger.Warn("cannot move imported file", "path", path, "error", err)
		return
	}
	logger.Debug("moved imported file", "from", path, "to", dst)
}

// report sends a progress snapshot, throttled unless force is set.
func (e *Engine) report(force bool) {
	if e.opts.OnProgress == nil {
		return
	}
	now := time.Now()
	if !force && now.Sub(e.lastProgress) < progressInterval {
		return
	}
	e.lastProgress = now
	e.opts.OnProgress(e.progress)
}
