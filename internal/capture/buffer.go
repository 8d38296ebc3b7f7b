package capture

import "sync"

// Buffer is a task's output store. It is append-only: writes never
// rewrite earlier bytes, and readers see whole writes or nothing.
//
// An unbounded Buffer keeps everything. A bounded Buffer keeps only the
// last limit bytes in a RingBuffer while still counting every byte
// written, so stream offsets stay meaningful after old output is dropped.
type Buffer struct {
	mu    sync.RWMutex
	data  []byte
	ring  *RingBuffer
	total int
}

// NewBuffer returns a Buffer. limit <= 0 means unbounded.
func NewBuffer(limit int) *Buffer {
	b := &Buffer{}
	if limit > 0 {
		b.ring = NewRingBuffer(limit)
	}
	return b
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ring != nil {
		_, _ = b.ring.Write(p)
	} else {
		b.data = append(b.data, p...)
	}
	b.total += len(p)
	return len(p), nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// Bytes returns a copy of the retained output.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bytes()
}

func (b *Buffer) bytes() []byte {
	if b.ring != nil {
		return b.ring.Bytes()
	}
	return append([]byte(nil), b.data...)
}

// String returns the retained output as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// From returns the output written at stream offset and later, plus the
// offset to pass on the next call. Offsets count every byte ever written;
// if the bytes at offset were already dropped by the tail bound, From
// starts at the oldest retained byte.
func (b *Buffer) From(offset int) ([]byte, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset >= b.total {
		return nil, b.total
	}
	retained := b.bytes()
	first := b.total - len(retained)
	if offset < first {
		offset = first
	}
	return retained[offset-first:], b.total
}

// Len returns the number of retained bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ring != nil {
		return b.ring.Len()
	}
	return len(b.data)
}

// Total returns the number of bytes ever written.
func (b *Buffer) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Truncated reports whether the tail bound has dropped output.
func (b *Buffer) Truncated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ring != nil && b.total > b.ring.Cap()
}
