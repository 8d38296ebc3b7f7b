package capture

import "sync"

// RingBuffer is a fixed-capacity byte buffer that keeps the most recent
// bytes written to it. Once full, each write overwrites the oldest data.
//
//	cap 5, write "abc":  [a b c _ _]
//	write "de":          [a b c d e]
//	write "fg":          [f g c d e]  Bytes() = "cdefg"
//
// RingBuffer implements io.Writer and is safe for concurrent use.
type RingBuffer struct {
	mu   sync.RWMutex
	data []byte
	head int // index of the oldest byte
	n    int // bytes stored
}

// NewRingBuffer returns a RingBuffer holding at most size bytes.
// A non-positive size is treated as 1.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{data: make([]byte, size)}
}

// Write stores p, discarding the oldest bytes as needed. It never fails.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(p)
	return len(p), nil
}

// write must be called with mu held.
func (r *RingBuffer) write(p []byte) {
	size := len(r.data)
	if len(p) >= size {
		copy(r.data, p[len(p)-size:])
		r.head, r.n = 0, size
		return
	}
	tail := (r.head + r.n) % size
	k := copy(r.data[tail:], p)
	copy(r.data, p[k:])

	r.n += len(p)
	if r.n > size {
		r.head = (r.head + r.n - size) % size
		r.n = size
	}
}

// Bytes returns a copy of the stored bytes, oldest first.
func (r *RingBuffer) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]byte, r.n)
	k := copy(out, r.data[r.head:min(r.head+r.n, len(r.data))])
	copy(out[k:], r.data[:r.n-k])
	return out
}

// Len returns the number of bytes stored.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.n
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}

// Reset discards all stored bytes, keeping the allocation.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	r.head, r.n = 0, 0
	r.mu.Unlock()
}
