// Package cleanup empties the import folder.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var logger = logging.Get("cleanup")

var (
	// ErrEmptyPath is returned for a blank import folder.
	ErrEmptyPath = errors.New("import folder is empty")

	// ErrNotDir is returned when the import folder is not a directory.
	ErrNotDir = errors.New("not a directory")
)

// Result counts what a clean removed.
type Result struct {
	Root         string `json:"root" yaml:"root"`
	DeletedFiles int    `json:"deleted_files" yaml:"deleted_files"`
	DeletedDirs  int    `json:"deleted_dirs" yaml:"deleted_dirs"`
	Errors       int    `json:"errors" yaml:"errors"`
}

// OK reports whether every entry was removed.
func (r Result) OK() bool { return r.Errors == 0 }

// CleanImports removes every entry inside root, including the done
// folders, but keeps root itself. remove defaults to Delete. Per-entry
// failures are logged and counted; only an invalid root is an error.
func CleanImports(ctx context.Context, root string, remove Remover) (Result, error) {
	root = strings.Trim(strings.TrimSpace(root), `"'`)
	if root == "" {
		return Result{}, ErrEmptyPath
	}
	res := Result{Root: root}

	info, err := os.Stat(root)
	if err != nil {
		return res, fmt.Errorf("import folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("%w: %s", ErrNotDir, root)
	}

	if remove == nil {
		remove = Delete
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return res, fmt.Errorf("reading import folder: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(root, e.Name())
		isDir := e.IsDir() && e.Type()&os.ModeSymlink == 0
		if err := remove(ctx, path); err != nil {
			res.Errors++
			logger.Warn("cannot remove import entry", "path", path, "error", err)
			continue
		}
		if isDir {
			res.DeletedDirs++
		} else {
			res.DeletedFiles++
		}
	}

	logger.Info("import folder cleaned",
		"root", root, "files", res.DeletedFiles, "dirs", res.DeletedDirs, "errors", res.Errors)
	return res, nil
}
