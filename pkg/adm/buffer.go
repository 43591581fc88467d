// ABOUTME: Fixed-capacity byte buffer with position and limit cursors
// ABOUTME: Shared between the engine and the pump for one direction
package adm

// Buffer is a fixed-capacity byte region with a read/write position and a
// limit. Put and Get advance the position; Remaining is limit-position.
//
// A Buffer is not safe for concurrent use. The session only touches it
// while holding the direction's AccessGuard.
type Buffer struct {
	data  []byte
	pos   int
	limit int
}

// NewBuffer allocates a cleared buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return WrapBuffer(make([]byte, capacity))
}

// WrapBuffer uses data as the backing store of a cleared buffer.
func WrapBuffer(data []byte) *Buffer {
	return &Buffer{data: data, limit: len(data)}
}

// Cap returns the buffer's capacity in bytes.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Position returns the current cursor.
func (b *Buffer) Position() int {
	return b.pos
}

// Limit returns the current limit.
func (b *Buffer) Limit() int {
	return b.limit
}

// Remaining returns the bytes between position and limit.
func (b *Buffer) Remaining() int {
	return b.limit - b.pos
}

// Bytes returns the whole backing region regardless of the cursors.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Clear resets the position to zero and the limit to capacity.
func (b *Buffer) Clear() {
	b.pos = 0
	b.limit = len(b.data)
}

// Flip sets the limit to the current position and the position to zero,
// turning written data into readable data.
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
}

// Put copies as much of p as fits before the limit and returns the count.
func (b *Buffer) Put(p []byte) int {
	n := copy(b.data[b.pos:b.limit], p)
	b.pos += n
	return n
}

// Get copies as much as is remaining into p and returns the count.
func (b *Buffer) Get(p []byte) int {
	n := copy(p, b.data[b.pos:b.limit])
	b.pos += n
	return n
}
