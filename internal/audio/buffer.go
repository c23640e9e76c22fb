package audio

import (
	"sync"
)

// RingBuffer stages microphone PCM between the websocket reader and the
// recognizer. When full, the oldest bytes are overwritten so the recognizer
// always sees the most recent audio.
type RingBuffer struct {
	mu      sync.Mutex
	buf     []byte
	start   int // index of the oldest byte
	length  int // bytes currently held
	dropped int64
}

// NewRingBuffer creates a ring buffer holding at most size bytes.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{buf: make([]byte, size)}
}

// Write appends data, evicting the oldest bytes if needed.
// Returns the number of previously buffered bytes that were evicted.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buf)
	evicted := 0

	// Only the tail of an oversized write can fit.
	if len(data) >= size {
		evicted = rb.length
		skipped := len(data) - size
		copy(rb.buf, data[skipped:])
		rb.start = 0
		rb.length = size
		rb.dropped += int64(evicted + skipped)
		return evicted
	}

	if over := rb.length + len(data) - size; over > 0 {
		rb.start = (rb.start + over) % size
		rb.length -= over
		evicted = over
		rb.dropped += int64(over)
	}

	end := (rb.start + rb.length) % size
	n := copy(rb.buf[end:], data)
	copy(rb.buf, data[n:])
	rb.length += len(data)

	return evicted
}

// Read moves up to len(p) buffered bytes into p and returns the count.
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(p)
	if n > rb.length {
		n = rb.length
	}
	if n == 0 {
		return 0
	}

	first := copy(p[:n], rb.buf[rb.start:])
	if first < n {
		copy(p[first:n], rb.buf)
	}
	rb.start = (rb.start + n) % len(rb.buf)
	rb.length -= n
	return n
}

// Drain returns everything buffered and empties the buffer.
func (rb *RingBuffer) Drain() []byte {
	rb.mu.Lock()
	n := rb.length
	rb.mu.Unlock()

	out := make([]byte, n)
	return out[:rb.Read(out)]
}

// Len returns the number of buffered bytes.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.length
}

// Cap returns the buffer capacity in bytes.
func (rb *RingBuffer) Cap() int {
	return len(rb.buf)
}

// Dropped returns the total bytes lost to overwrites since creation or Reset.
func (rb *RingBuffer) Dropped() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Reset empties the buffer.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.start = 0
	rb.length = 0
	rb.dropped = 0
}
