// Package ingest imports dump files from an import folder into a store's
// raw per-kind files.
//
// Files are discovered recursively, processed one at a time in path order,
// decoded by the archive package and classified line by line. Classified
// values are buffered per kind and appended to the raw stores every
// ChunkLines processed lines. A file is recorded in the ledger only after
// it was read to the end.
package ingest

import (
	"errors"

	"github.com/jamesainslie/breachstore/pkg/breachstore/classify"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// DefaultChunkLines is the flush threshold used when Options.ChunkLines is unset.
const DefaultChunkLines = 200_000

// DoneDirName is the sibling folder completed files are moved into.
const DoneDirName = "_done"

// ErrNoStoreRoot is returned when Options.StoreRoot is empty.
var ErrNoStoreRoot = errors.New("store root is required")

// ErrNoImportRoot is returned when the import path is empty or does not exist.
var ErrNoImportRoot = errors.New("import path does not exist")

// Options configures an ingestion run.
type Options struct {
	// StoreRoot is the store that receives raw values and holds the ledger.
	StoreRoot string

	// ImportRoot is a folder scanned recursively, or a single file.
	ImportRoot string

	// PairSeparators are tried in order to split "left<sep>right" lines.
	PairSeparators []string

	// MoveDone moves each imported file into a _done folder beside it.
	MoveDone bool

	// ChunkLines is the number of processed lines between flushes.
	ChunkLines int

	// Exclude holds glob patterns for files to skip during discovery.
	// Patterns use '/' as separator and are matched against the absolute
	// path, the path relative to ImportRoot and the base name.
	Exclude []string

	// OnProgress, if set, receives throttled progress snapshots.
	OnProgress func(types.ImportProgress)
}

// DefaultOptions returns options with the default separators and chunk size.
func DefaultOptions() Options {
	return Options{
		PairSeparators: classify.DefaultSeparators,
		ChunkLines:     DefaultChunkLines,
		Exclude:        []string{"**/" + DoneDirName + "/**"},
	}
}

func (o *Options) validate() error {
	if o.StoreRoot == "" {
		return ErrNoStoreRoot
	}
	if o.ImportRoot == "" {
		return ErrNoImportRoot
	}
	if len(o.PairSeparators) == 0 {
		o.PairSeparators = classify.DefaultSeparators
	}
	if o.ChunkLines <= 0 {
		o.ChunkLines = DefaultChunkLines
	}
	return nil
}
