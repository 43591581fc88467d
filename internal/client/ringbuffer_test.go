// ABOUTME: Tests for the playout ring buffer
// ABOUTME: Covers wraparound, overflow and partial reads
package client

import (
	"bytes"
	"testing"
)

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(5)

	if n := rb.Write([]byte{1, 2, 3, 4}); n != 4 {
		t.Fatalf("Write = %d, want 4", n)
	}
	out := make([]byte, 3)
	if n := rb.Read(out); n != 3 || !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Fatalf("Read = %d %v", n, out)
	}

	if n := rb.Write([]byte{5, 6, 7, 8}); n != 4 {
		t.Fatalf("wrapped Write = %d, want 4", n)
	}
	out = make([]byte, 5)
	if n := rb.Read(out); n != 5 || !bytes.Equal(out, []byte{4, 5, 6, 7, 8}) {
		t.Errorf("wrapped Read = %d %v", n, out)
	}
}

func TestRingBufferOverflowKeepsOldest(t *testing.T) {
	rb := NewRingBuffer(3)
	if n := rb.Write([]byte{1, 2, 3, 4, 5}); n != 3 {
		t.Fatalf("Write = %d, want 3", n)
	}
	if rb.Free() != 0 || rb.Available() != 3 {
		t.Errorf("free=%d available=%d", rb.Free(), rb.Available())
	}
	out := make([]byte, 3)
	rb.Read(out)
	if !bytes.Equal(out, []byte{1, 2, 3}) {
		t.Errorf("Read = %v", out)
	}
}

func TestRingBufferShortRead(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{9, 9})
	out := []byte{0, 0, 0, 0}
	if n := rb.Read(out); n != 2 {
		t.Errorf("Read = %d, want 2", n)
	}
	rb.Reset()
	if rb.Available() != 0 {
		t.Error("Reset should empty the buffer")
	}
}
