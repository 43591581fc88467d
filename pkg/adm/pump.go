// ABOUTME: Burst pump between device callbacks and the engine's buffers
// ABOUTME: Never blocks; a held guard fails the call with ErrConcurrentAccess
package adm

import "fmt"

// DataIsRecorded copies src[offset:offset+length] into the recording
// buffer. Every time the buffer fills, the engine is notified and the
// buffer is cleared, so one call may span several bursts.
func (s *Session) DataIsRecorded(src []byte, offset, length int) error {
	if err := checkRange(len(src), offset, length); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	dir := s.dirs[Recording]
	release, ok := dir.guard.TryAcquire()
	if !ok {
		dir.contended.Add(1)
		return fmt.Errorf("%w: %s", ErrConcurrentAccess, Recording)
	}
	defer release()

	buf := dir.buf
	if buf == nil {
		return fmt.Errorf("%w: %s", ErrNoBuffer, Recording)
	}

	for length > 0 {
		n := buf.Put(src[offset : offset+length])
		offset += n
		length -= n
		dir.bytes.Add(int64(n))
		if buf.Remaining() == 0 {
			s.backend.DataRecorded()
			buf.Clear()
			dir.bursts.Add(1)
		}
	}
	return nil
}

// GetPlayoutData fills dst[offset:offset+length] from the playout buffer,
// asking the engine for more data each time the buffer runs dry. A zero
// length returns immediately without touching the buffer.
func (s *Session) GetPlayoutData(dst []byte, offset, length int) error {
	if err := checkRange(len(dst), offset, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	if s.closed.Load() {
		return ErrClosed
	}

	dir := s.dirs[Playout]
	release, ok := dir.guard.TryAcquire()
	if !ok {
		dir.contended.Add(1)
		return fmt.Errorf("%w: %s", ErrConcurrentAccess, Playout)
	}
	defer release()

	buf := dir.buf
	if buf == nil {
		return fmt.Errorf("%w: %s", ErrNoBuffer, Playout)
	}

	for length > 0 {
		if buf.Remaining() == 0 {
			s.backend.NeedPlayoutData()
			buf.Clear()
			dir.bursts.Add(1)
		}
		n := buf.Get(dst[offset : offset+length])
		offset += n
		length -= n
		dir.bytes.Add(int64(n))
	}
	return nil
}

// Record pumps all of src into the recording buffer.
func (s *Session) Record(src []byte) error {
	return s.DataIsRecorded(src, 0, len(src))
}

// Play fills all of dst from the playout buffer.
func (s *Session) Play(dst []byte) error {
	return s.GetPlayoutData(dst, 0, len(dst))
}

func checkRange(size, offset, length int) error {
	if offset < 0 || length < 0 || offset > size || length > size-offset {
		return fmt.Errorf("%w: offset %d length %d in %d bytes", ErrInvalidRange, offset, length, size)
	}
	return nil
}
