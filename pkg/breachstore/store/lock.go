package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned by Lock when another process holds the store.
var ErrLocked = errors.New("store is locked by another process")

// Lock is an exclusive advisory lock on a store root.
type Lock struct {
	file *os.File
}

// Lock acquires the store's advisory lock without blocking. Imports,
// dedup and clean take it so two runs never interleave writes.
func (l Layout) Lock() (*Lock, error) {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}
	path := l.LockPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", filepath.Base(path), err)
	}
	if err := tryLock(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{file: f}, nil
}

// Release drops the lock. It is safe to call more than once.
func (lk *Lock) Release() error {
	if lk == nil || lk.file == nil {
		return nil
	}
	unlock(lk.file)
	err := lk.file.Close()
	lk.file = nil
	return err
}
