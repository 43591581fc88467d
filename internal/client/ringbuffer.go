// ABOUTME: Thread-safe byte ring buffer for received playout audio
// ABOUTME: Absorbs network jitter between the link and the device pump
package client

import "sync"

// RingBuffer provides thread-safe circular buffer for audio bytes
type RingBuffer struct {
	buffer   []byte
	readPos  int
	writePos int
	count    int // bytes currently in buffer
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity in bytes
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buffer: make([]byte, capacity)}
}

// Write adds as much of p as fits and returns the count
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buffer)
	written := 0
	for written < len(p) && rb.count < size {
		end := rb.writePos + (size - rb.count)
		if end > size {
			end = size
		}
		n := copy(rb.buffer[rb.writePos:end], p[written:])
		rb.writePos = (rb.writePos + n) % size
		rb.count += n
		written += n
	}
	return written
}

// Read removes up to len(p) bytes and returns the count
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	size := len(rb.buffer)
	read := 0
	for read < len(p) && rb.count > 0 {
		end := rb.readPos + rb.count
		if end > size {
			end = size
		}
		n := copy(p[read:], rb.buffer[rb.readPos:end])
		rb.readPos = (rb.readPos + n) % size
		rb.count -= n
		read += n
	}
	return read
}

// Available returns the number of bytes available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free bytes
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.buffer) - rb.count
}

// Reset discards all buffered bytes
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readPos, rb.writePos, rb.count = 0, 0, 0
}

// Size returns the capacity in bytes
func (rb *RingBuffer) Size() int {
	return len(rb.buffer)
}
