// Package types provides core data types for breachstore.
// It includes the value kinds, classified items, import statistics and
// per-kind store status, along with helpers for parsing and formatting sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind is the classification category of a value.
type Kind string

// The four value kinds, in canonical order.
const (
	KindUser     Kind = "user"
	KindPassword Kind = "password"
	KindEmail    Kind = "email"
	KindHash     Kind = "hash"
)

// Kinds lists every kind in canonical order (user, password, email, hash).
// Search, status and dedup iterate kinds in this order.
var Kinds = []Kind{KindUser, KindPassword, KindEmail, KindHash}

// ErrInvalidKind indicates that a kind string could not be parsed.
var ErrInvalidKind = errors.New("invalid kind")

// ParseKind parses a kind name. Plural forms ("users") are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "users":
		return KindUser, nil
	case "password", "passwords":
		return KindPassword, nil
	case "email", "emails":
		return KindEmail, nil
	case "hash", "hashes":
		return KindHash, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Plural returns the plural form used for file and folder names.
func (k Kind) Plural() string {
	if k == KindHash {
		return "hashes"
	}
	return string(k) + "s"
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindPassword, KindEmail, KindHash:
		return true
	}
	return false
}

// Item is a single classified value. Values are kept byte-for-byte.
type Item struct {
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`
}

// ImportStats summarizes one ingestion run.
type ImportStats struct {
	// PerKind counts the classified values appended per kind.
	PerKind map[Kind]int64 `json:"per_kind" yaml:"per_kind"`

	// FilesSeen is the number of candidate files discovered.
	FilesSeen int `json:"files_seen" yaml:"files_seen"`

	// FilesImported is the number of files fully ingested during this run.
	FilesImported int `json:"files_imported" yaml:"files_imported"`

	// FilesFailed is the number of files whose container could not be opened.
	FilesFailed int `json:"files_failed" yaml:"files_failed"`

	// LinesProcessed counts non-comment lines that produced at least one value.
	LinesProcessed int64 `json:"lines_processed" yaml:"lines_processed"`

	// ForcedModeFiles counts files ingested under a forced kind.
	ForcedModeFiles int `json:"forced_mode_files" yaml:"forced_mode_files"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Errors contains per-file errors that did not stop the run.
	Errors []FileError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewImportStats returns stats with every kind counter initialized to zero.
func NewImportStats() *ImportStats {
	per := make(map[Kind]int64, len(Kinds))
	for _, k := range Kinds {
		per[k] = 0
	}
	return &ImportStats{PerKind: per}
}

// TotalValues returns the sum of all per-kind counters.
func (s *ImportStats) TotalValues() int64 {
	var total int64
	for _, n := range s.PerKind {
		total += n
	}
	return total
}

// FileError pairs a file path with the error encountered while ingesting it.
type FileError struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// ImportProgress is a snapshot of a running ingestion.
type ImportProgress struct {
	FilesSeen      int    `json:"files_seen"`
	FilesDone      int    `json:"files_done"`
	FilesImported  int    `json:"files_imported"`
	LinesProcessed int64  `json:"lines_processed"`
	Values         int64  `json:"values"`
	CurrentPath    string `json:"current_path"`
}

// KindStatus describes the freshness of one kind's unique store.
type KindStatus struct {
	Kind         Kind      `json:"kind" yaml:"kind"`
	RawPath      string    `json:"raw_path" yaml:"raw_path"`
	UniquePath   string    `json:"unique_path" yaml:"unique_path"`
	RawExists    bool      `json:"raw_exists" yaml:"raw_exists"`
	UniqueExists bool      `json:"unique_exists" yaml:"unique_exists"`
	RawSize      int64     `json:"raw_size" yaml:"raw_size"`
	UniqueSize   int64     `json:"unique_size" yaml:"unique_size"`
	RawMtime     time.Time `json:"raw_mtime" yaml:"raw_mtime"`
	UniqueMtime  time.Time `json:"unique_mtime" yaml:"unique_mtime"`
	LastImport   time.Time `json:"last_import" yaml:"last_import"`
	LastDedup    time.Time `json:"last_dedup" yaml:"last_dedup"`
	Outdated     bool      `json:"outdated" yaml:"outdated"`
}

// KindCount holds line counts for one kind's raw and unique stores.
type KindCount struct {
	Kind   Kind  `json:"kind" yaml:"kind"`
	Raw    int64 `json:"raw" yaml:"raw"`
	Unique int64 `json:"unique" yaml:"unique"`
}

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// Accepted suffixes are B, K/KB/KiB, M/MB/MiB, G/GB/GiB and T/TB/TiB, all
// binary units. Decimal values are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable IEC string.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// FormatCount formats a line or value count with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}
