// ABOUTME: Buffer negotiation between the device's sample rate and the engine
// ABOUTME: Runs under the direction guard whenever a direction is initialized
package adm

import (
	"fmt"
	"log"
)

// negotiate replaces dir's buffer with one the engine sizes for the device's
// current sample rate. The old buffer is dropped first so a failed
// negotiation never leaves a stale buffer behind. Playout buffers are
// handed to the pump empty, so the first read triggers a refill. The
// buffer must hold whole 16-bit frames of the validated channel count.
func (s *Session) negotiate(dir *direction, channels int) error {
	release := dir.guard.Acquire()
	defer release()

	dir.buf = nil

	rate := s.backend.SampleRate(dir.d)
	buf := s.backend.ConfigureRate(dir.d, rate)
	if buf == nil || buf.Cap() == 0 {
		log.Printf("adm: BACKEND CONTRACT VIOLATION: engine returned no usable %s buffer for %d Hz", dir.d, rate)
		return fmt.Errorf("%w: no %s buffer for %d Hz", ErrBackendContract, dir.d, rate)
	}
	if frameBytes := channels * 2; buf.Cap()%frameBytes != 0 {
		log.Printf("adm: BACKEND CONTRACT VIOLATION: %s buffer of %d bytes is not whole %d-channel frames", dir.d, buf.Cap(), channels)
		return fmt.Errorf("%w: %s buffer of %d bytes for %d channels", ErrBackendContract, dir.d, buf.Cap(), channels)
	}

	buf.Clear()
	if dir.d == Playout {
		buf.Flip()
	}
	dir.buf = buf

	log.Printf("adm: %s negotiated at %d Hz, %d-byte buffer", dir.d, rate, buf.Cap())
	return nil
}
