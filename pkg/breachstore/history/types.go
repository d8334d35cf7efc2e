// Package history records import, dedup and clean runs under the store's
// history directory.
package history

import (
	"time"

	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// Operation is the kind of run an entry records.
type Operation string

const (
	// OpImport records an ingestion run.
	OpImport Operation = "import"
	// OpDedup records a dedup run.
	OpDedup Operation = "dedup"
	// OpClean records a clean of the import folder.
	OpClean Operation = "clean"
)

// Entry is a single recorded run.
type Entry struct {
	ID        string        `json:"id" yaml:"id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Operation Operation     `json:"operation" yaml:"operation"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`

	Import *types.ImportStats `json:"import,omitempty" yaml:"import,omitempty"`
	Dedup  []KindResult       `json:"dedup,omitempty" yaml:"dedup,omitempty"`
	Clean  *CleanSummary      `json:"clean,omitempty" yaml:"clean,omitempty"`
}

// KindResult is the outcome of deduplicating one kind.
type KindResult struct {
	Kind    types.Kind    `json:"kind" yaml:"kind"`
	OK      bool          `json:"ok" yaml:"ok"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// CleanSummary counts what a clean removed.
type CleanSummary struct {
	Root         string `json:"root" yaml:"root"`
	DeletedFiles int    `json:"deleted_files" yaml:"deleted_files"`
	DeletedDirs  int    `json:"deleted_dirs" yaml:"deleted_dirs"`
	Errors       int    `json:"errors" yaml:"errors"`
	Trashed      bool   `json:"trashed" yaml:"trashed"`
}
