// Package ledger persists which input files have been imported and when
// each kind was last deduplicated.
//
// The ledger is a single JSON document, state.json, in the store root:
//
//	{
//	  "imported_files": {"/abs/path": {"size": 123, "mtime": 1700000000.25}},
//	  "meta": {
//	    "last_import_ts": 1700000000.5,
//	    "last_dedup_ts": {"user": 0, "password": 0, "email": 0, "hash": 0}
//	  }
//	}
//
// Timestamps are float epoch seconds with sub-second precision.
package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
	"github.com/jamesainslie/breachstore/pkg/breachstore/store"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

var logger = logging.Get("ledger")

// Fingerprint identifies one version of an input file.
type Fingerprint struct {
	Size  int64   `json:"size"`
	Mtime float64 `json:"mtime"`
}

// Meta holds run timestamps.
type Meta struct {
	LastImportTS float64            `json:"last_import_ts"`
	LastDedupTS  map[string]float64 `json:"last_dedup_ts"`
}

// State is the in-memory ledger.
type State struct {
	ImportedFiles map[string]Fingerprint `json:"imported_files"`
	Meta          Meta                   `json:"meta"`
}

// NewState returns an empty ledger with every kind present in last_dedup_ts.
func NewState() *State {
	st := &State{}
	st.backfill()
	return st
}

func (st *State) backfill() {
	if st.ImportedFiles == nil {
		st.ImportedFiles = make(map[string]Fingerprint)
	}
	if st.Meta.LastDedupTS == nil {
		st.Meta.LastDedupTS = make(map[string]float64, len(types.Kinds))
	}
	for _, k := range types.Kinds {
		if _, ok := st.Meta.LastDedupTS[string(k)]; !ok {
			st.Meta.LastDedupTS[string(k)] = 0
		}
	}
}

// Epoch converts t to float epoch seconds.
func Epoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FromEpoch converts float epoch seconds to a time. Zero maps to the zero time.
func FromEpoch(ts float64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	sec := math.Floor(ts)
	return time.Unix(int64(sec), int64((ts-sec)*1e9))
}

// FingerprintOf stats path and returns its fingerprint.
func FingerprintOf(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{Size: info.Size(), Mtime: Epoch(info.ModTime())}, nil
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// IsImported reports whether path was imported and is unchanged since.
// Any change of size or mtime means the whole file is imported again.
func (st *State) IsImported(path string) bool {
	rec, ok := st.ImportedFiles[key(path)]
	if !ok {
		return false
	}
	cur, err := FingerprintOf(path)
	if err != nil {
		return false
	}
	return cur == rec
}

// MarkImported records the current fingerprint of path.
func (st *State) MarkImported(path string) error {
	fp, err := FingerprintOf(path)
	if err != nil {
		return fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	st.ImportedFiles[key(path)] = fp
	return nil
}

// LastImport returns the time of the last import run that imported a file.
func (st *State) LastImport() time.Time { return FromEpoch(st.Meta.LastImportTS) }

// SetLastImport records an import run.
func (st *State) SetLastImport(t time.Time) { st.Meta.LastImportTS = Epoch(t) }

// LastDedup returns the time kind was last deduplicated.
func (st *State) LastDedup(kind types.Kind) time.Time {
	return FromEpoch(st.Meta.LastDedupTS[string(kind)])
}

// SetLastDedup records a successful dedup of kind.
func (st *State) SetLastDedup(kind types.Kind, t time.Time) {
	st.Meta.LastDedupTS[string(kind)] = Epoch(t)
}

// Load reads the ledger of the store at root. A missing, unreadable or
// corrupt file yields a fresh ledger; corruption is logged.
func Load(root string) *State {
	path := store.New(root).StatePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("unreadable ledger, starting fresh", "path", path, "error", err)
		}
		return NewState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("corrupt ledger, starting fresh", "path", path, "error", err)
		return NewState()
	}
	st.backfill()
	return &st
}

// Save writes st to a sibling temp file and renames it over state.json.
func Save(root string, st *State) error {
	path := store.New(root).StatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating store root: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
