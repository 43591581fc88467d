// ABOUTME: Tests for the recording and playout pump
// ABOUTME: Covers multi-burst requests, range checks and guard contention
package adm

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
)

func newRecordingSession(t *testing.T, capacity int) (*Session, *fakeBackend) {
	t.Helper()
	f := newFakeBackend(capacity)
	s := NewSession(f)
	if err := s.InitRecording(); err != nil {
		t.Fatalf("InitRecording failed: %v", err)
	}
	return s, f
}

func newPlayoutSession(t *testing.T, capacity int) (*Session, *fakeBackend) {
	t.Helper()
	f := newFakeBackend(capacity)
	s := NewSession(f)
	if err := s.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}
	return s, f
}

func TestRecordSpanningSeveralBursts(t *testing.T) {
	s, f := newRecordingSession(t, 4)

	src := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if err := s.DataIsRecorded(src, 0, len(src)); err != nil {
		t.Fatalf("DataIsRecorded failed: %v", err)
	}

	if len(f.recorded) != 2 {
		t.Fatalf("got %d notifications, want 2", len(f.recorded))
	}
	if !bytes.Equal(f.recorded[0], []byte{0, 1, 2, 3}) || !bytes.Equal(f.recorded[1], []byte{4, 5, 6, 7}) {
		t.Errorf("recorded bursts = %v", f.recorded)
	}
	if pos := f.bufs[Recording].Position(); pos != 2 {
		t.Errorf("buffered bytes = %d, want 2", pos)
	}

	// the remainder completes on the next call
	if err := s.Record([]byte{10, 11}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(f.recorded) != 3 || !bytes.Equal(f.recorded[2], []byte{8, 9, 10, 11}) {
		t.Errorf("third burst = %v", f.recorded)
	}

	stats := s.PumpStats(Recording)
	if stats.Bytes != 12 || stats.Bursts != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecordHonorsOffset(t *testing.T) {
	s, f := newRecordingSession(t, 2)

	src := []byte{99, 99, 1, 2, 99}
	if err := s.DataIsRecorded(src, 2, 2); err != nil {
		t.Fatalf("DataIsRecorded failed: %v", err)
	}
	if len(f.recorded) != 1 || !bytes.Equal(f.recorded[0], []byte{1, 2}) {
		t.Errorf("recorded = %v", f.recorded)
	}
}

func TestPlayoutSpanningSeveralRefills(t *testing.T) {
	s, f := newPlayoutSession(t, 4)

	dst := make([]byte, 10)
	if err := s.GetPlayoutData(dst, 0, len(dst)); err != nil {
		t.Fatalf("GetPlayoutData failed: %v", err)
	}

	if got := f.count("needPlayout"); got != 3 {
		t.Fatalf("refills = %d, want 3", got)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}

	// two bytes of the third refill are still pending
	more := make([]byte, 2)
	if err := s.Play(more); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !bytes.Equal(more, []byte{11, 12}) {
		t.Errorf("more = %v", more)
	}
	if got := f.count("needPlayout"); got != 3 {
		t.Errorf("refills = %d, want still 3", got)
	}
}

func TestFirstPlayoutReadRefills(t *testing.T) {
	s, f := newPlayoutSession(t, 8)

	if err := s.Play(make([]byte, 1)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if got := f.count("needPlayout"); got != 1 {
		t.Errorf("refills = %d, want 1", got)
	}
}

func TestZeroLengthPlayoutSkipsGuard(t *testing.T) {
	s, f := newPlayoutSession(t, 4)

	release := s.dirs[Playout].guard.Acquire()
	defer release()

	if err := s.GetPlayoutData(make([]byte, 4), 2, 0); err != nil {
		t.Fatalf("zero-length read should succeed, got %v", err)
	}
	if f.count("needPlayout") != 0 {
		t.Error("zero-length read must not refill")
	}
}

func TestPumpRangeValidation(t *testing.T) {
	s, f := newRecordingSession(t, 4)
	p, _ := newPlayoutSession(t, 4)

	tests := []struct {
		name   string
		size   int
		offset int
		length int
	}{
		{"negative offset", 4, -1, 1},
		{"negative length", 4, 0, -1},
		{"offset past end", 4, 5, 0},
		{"length past end", 4, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.DataIsRecorded(make([]byte, tt.size), tt.offset, tt.length); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("record: expected ErrInvalidRange, got %v", err)
			}
			if err := p.GetPlayoutData(make([]byte, tt.size), tt.offset, tt.length); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("playout: expected ErrInvalidRange, got %v", err)
			}
		})
	}
	if len(f.recorded) != 0 {
		t.Error("invalid ranges must not reach the buffer")
	}
}

func TestPumpWithoutBuffer(t *testing.T) {
	s := NewSession(newFakeBackend(4))
	if err := s.Record([]byte{1}); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("expected ErrNoBuffer, got %v", err)
	}
	if err := s.Play(make([]byte, 1)); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("expected ErrNoBuffer, got %v", err)
	}
}

func TestConcurrentRecordIsRejected(t *testing.T) {
	s, f := newRecordingSession(t, 4)

	inside := make(chan struct{})
	proceed := make(chan struct{})
	f.onRecord = func() {
		close(inside)
		<-proceed
	}

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = s.Record([]byte{1, 2, 3, 4})
	}()

	<-inside
	err := s.Record([]byte{5, 6, 7, 8})
	close(proceed)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first record failed: %v", firstErr)
	}
	if !errors.Is(err, ErrConcurrentAccess) {
		t.Fatalf("expected ErrConcurrentAccess, got %v", err)
	}
	if len(f.recorded) != 1 || !bytes.Equal(f.recorded[0], []byte{1, 2, 3, 4}) {
		t.Errorf("recorded = %v", f.recorded)
	}
	if f.bufs[Recording].Position() != 0 {
		t.Error("rejected call must not touch the buffer")
	}
	if s.PumpStats(Recording).Contended != 1 {
		t.Errorf("contended = %d, want 1", s.PumpStats(Recording).Contended)
	}
}

func TestConcurrentPlayoutIsRejected(t *testing.T) {
	s, _ := newPlayoutSession(t, 4)

	release := s.dirs[Playout].guard.Acquire()
	err := s.Play(make([]byte, 2))
	release()

	if !errors.Is(err, ErrConcurrentAccess) {
		t.Fatalf("expected ErrConcurrentAccess, got %v", err)
	}
	if err := s.Play(make([]byte, 2)); err != nil {
		t.Errorf("Play after release failed: %v", err)
	}
}

func TestDirectionsPumpIndependently(t *testing.T) {
	f := newFakeBackend(4)
	s := NewSession(f)
	if err := s.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}
	if err := s.InitRecording(); err != nil {
		t.Fatalf("InitRecording failed: %v", err)
	}

	release := s.dirs[Recording].guard.Acquire()
	defer release()

	if err := s.Play(make([]byte, 4)); err != nil {
		t.Errorf("playout should not contend with recording: %v", err)
	}
}

func TestStreamAdapters(t *testing.T) {
	f := newFakeBackend(4)
	s := NewSession(f)
	if err := s.InitPlayout(); err != nil {
		t.Fatalf("InitPlayout failed: %v", err)
	}
	if err := s.InitRecording(); err != nil {
		t.Fatalf("InitRecording failed: %v", err)
	}

	n, err := s.RecordingWriter().Write([]byte{1, 2, 3, 4, 5})
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if len(f.recorded) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.recorded))
	}

	out := make([]byte, 6)
	if _, err := io.ReadFull(s.PlayoutReader(), out); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if !bytes.Equal(out, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("read = %v", out)
	}
}
