package logging

import "sync"

// DefaultBufferSize is the number of records kept for the TUI.
const DefaultBufferSize = 100

// Buffer is a fixed-size ring of recent log records.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	start   int
	count   int
}

// NewBuffer returns a ring holding up to size records.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{entries: make([]Entry, size)}
}

// Add appends e, overwriting the oldest record when full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.entries)
	b.entries[(b.start+b.count)%size] = e
	if b.count < size {
		b.count++
		return
	}
	b.start = (b.start + 1) % size
}

// Last returns up to n of the newest records, oldest first.
func (b *Buffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count || n < 0 {
		n = b.count
	}
	out := make([]Entry, n)
	skip := b.count - n
	for i := range out {
		out[i] = b.entries[(b.start+skip+i)%len(b.entries)]
	}
	return out
}

// Len returns the number of records held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
