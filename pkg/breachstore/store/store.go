// Package store owns the on-disk layout of a breachstore root:
//
//	<root>/raw/<kind>s.txt              append-only classified values
//	<root>/unique/<kind>s.unique.txt    sorted, deduplicated projection
//	<root>/tmp/                         scratch space for external sort
//	<root>/history/                     run history entries
//	<root>/state.json                   import ledger
//	<root>/.lock                        advisory lock for mutating runs
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// File and directory names inside a store root.
const (
	RawDir     = "raw"
	UniqueDir  = "unique"
	TmpDir     = "tmp"
	HistoryDir = "history"
	StateFile  = "state.json"
	LockFile   = ".lock"
)

// Layout resolves paths inside one store root.
type Layout struct {
	Root string
}

// New returns the layout for root.
func New(root string) Layout {
	return Layout{Root: root}
}

// RawPath returns the raw store file for kind.
func (l Layout) RawPath(kind types.Kind) string {
	return filepath.Join(l.Root, RawDir, kind.Plural()+".txt")
}

// UniquePath returns the deduplicated store file for kind.
func (l Layout) UniquePath(kind types.Kind) string {
	return filepath.Join(l.Root, UniqueDir, kind.Plural()+".unique.txt")
}

// TmpPath returns the scratch directory.
func (l Layout) TmpPath() string { return filepath.Join(l.Root, TmpDir) }

// HistoryPath returns the run history directory.
func (l Layout) HistoryPath() string { return filepath.Join(l.Root, HistoryDir) }

// StatePath returns the ledger file.
func (l Layout) StatePath() string { return filepath.Join(l.Root, StateFile) }

// LockPath returns the advisory lock file.
func (l Layout) LockPath() string { return filepath.Join(l.Root, LockFile) }

// Ensure creates the root and its raw, unique and tmp directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, filepath.Join(l.Root, RawDir), filepath.Join(l.Root, UniqueDir), l.TmpPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	return nil
}

// AppendRaw appends values to the raw store of kind, one per line.
// Embedded line breaks are replaced by spaces so every value stays on
// exactly one line.
func (l Layout) AppendRaw(kind types.Kind, values []string) error {
	if len(values) == 0 {
		return nil
	}
	path := l.RawPath(kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating raw directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening raw store %s: %w", path, err)
	}

	w := bufio.NewWriterSize(f, 1<<20)
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			v = strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
		}
		if _, err := w.WriteString(v); err != nil {
			f.Close()
			return fmt.Errorf("appending to %s: %w", path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return fmt.Errorf("appending to %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}
