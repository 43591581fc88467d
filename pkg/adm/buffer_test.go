// ABOUTME: Tests for the cursor-based byte buffer
// ABOUTME: Covers put/get bounds, clear and flip
package adm

import (
	"bytes"
	"testing"
)

func TestBufferPutStopsAtLimit(t *testing.T) {
	b := NewBuffer(4)
	n := b.Put([]byte{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("Put returned %d, want 4", n)
	}
	if b.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", b.Remaining())
	}
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3, 4}) {
		t.Errorf("Bytes = %v", b.Bytes())
	}
}

func TestBufferFlipMakesWrittenDataReadable(t *testing.T) {
	b := NewBuffer(8)
	b.Put([]byte{9, 8, 7})
	b.Flip()

	if b.Remaining() != 3 {
		t.Fatalf("Remaining after flip = %d, want 3", b.Remaining())
	}
	out := make([]byte, 5)
	n := b.Get(out)
	if n != 3 || !bytes.Equal(out[:n], []byte{9, 8, 7}) {
		t.Errorf("Get = %d %v", n, out[:n])
	}
}

func TestBufferFlipOfFreshBufferIsEmpty(t *testing.T) {
	b := NewBuffer(16)
	b.Flip()
	if b.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", b.Remaining())
	}
	if b.Get(make([]byte, 4)) != 0 {
		t.Error("Get on empty buffer returned data")
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(4)
	b.Put([]byte{1, 2})
	b.Flip()
	b.Clear()
	if b.Position() != 0 || b.Limit() != 4 {
		t.Errorf("after Clear position=%d limit=%d", b.Position(), b.Limit())
	}
}

func TestNewBufferNegativeCapacity(t *testing.T) {
	if NewBuffer(-1).Cap() != 0 {
		t.Error("negative capacity should produce an empty buffer")
	}
}
