package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var logger = logging.Get("history")

var (
	// ErrNotFound is returned by Get when no entry matches.
	ErrNotFound = errors.New("history entry not found")

	// ErrAmbiguous is returned by Get when an ID prefix matches several entries.
	ErrAmbiguous = errors.New("history ID prefix is ambiguous")
)

// History stores run entries as one JSON file each.
type History struct {
	dir string
	mu  sync.Mutex
}

// New returns a History rooted at dir. The directory is created on the
// first write.
func New(dir string) (*History, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &History{dir: dir}, nil
}

// Dir returns the history directory.
func (h *History) Dir() string { return h.dir }

// Record assigns an ID and timestamp to e when unset and persists it.
func (h *History) Record(e *Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	path := filepath.Join(h.dir, e.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming history entry: %w", err)
	}
	logger.Debug("recorded run", "id", e.ID, "operation", e.Operation)
	return nil
}

// List returns entries newest first. A limit <= 0 returns all of them.
// Unreadable files are skipped.
func (h *History) List(limit int) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b Entry) int { return b.Timestamp.Compare(a.Timestamp) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry whose ID equals id or starts with it.
func (h *History) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if e, err := h.readFile(id + ".json"); err == nil {
			return e, nil
		}
	}

	entries, err := h.readAll()
	if err != nil {
		return nil, err
	}
	var match *Entry
	for i := range entries {
		if !strings.HasPrefix(entries[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
		}
		match = &entries[i]
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes entries recorded more than retentionDays ago and
// returns how many were removed. A retentionDays <= 0 keeps everything.
func (h *History) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(h.dir, e.ID+".json")); err != nil {
			logger.Warn("cannot remove history entry", "id", e.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (h *History) readAll() ([]Entry, error) {
	files, err := os.ReadDir(h.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading history directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		e, err := h.readFile(f.Name())
		if err != nil {
			logger.Debug("skipping history file", "file", f.Name(), "error", err)
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (h *History) readFile(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(h.dir, name))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return &e, nil
}
