// ABOUTME: Session lifecycle state machine for playout and recording
// ABOUTME: Drives device hooks and keeps per-direction initialized/active flags
package adm

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Session tracks the lifecycle of one device and pumps audio between its
// callbacks and the engine's buffers. Lifecycle methods are serialized by a
// state lock; pump methods only take the direction's AccessGuard.
type Session struct {
	backend Backend

	mu          sync.Mutex
	initialized bool
	closed      atomic.Bool

	dirs [2]*direction
}

type direction struct {
	d     Direction
	state DirectionState // guarded by Session.mu

	guard AccessGuard
	buf   *Buffer // guarded by guard

	bytes     atomic.Int64
	bursts    atomic.Int64
	contended atomic.Int64
}

// PumpStats counts the traffic through one direction's pump.
type PumpStats struct {
	// Bytes copied between device callbacks and the buffer.
	Bytes int64
	// Bursts is the number of full-buffer notifications (recording) or
	// refills (playout).
	Bursts int64
	// Contended is the number of pump calls rejected with ErrConcurrentAccess.
	Contended int64
}

// NewSession creates an uninitialized session driving backend.
func NewSession(backend Backend) *Session {
	s := &Session{backend: backend}
	for _, d := range Directions {
		s.dirs[d] = &direction{d: d}
	}
	return s
}

// Init performs global device setup. Calling it on an initialized session
// does nothing.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if s.initialized {
		return nil
	}
	if err := s.backend.OnInit(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendInit, err)
	}
	s.initialized = true
	log.Printf("adm: session initialized")
	return nil
}

// Terminate releases global device resources. It is a no-op when the
// session is not initialized.
func (s *Session) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminateLocked()
}

func (s *Session) terminateLocked() {
	if !s.initialized {
		return
	}
	s.backend.OnTerminate()
	s.initialized = false
	log.Printf("adm: session terminated")
}

// Initialized reports whether Init has succeeded and Terminate has not run since.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// InitPlayout validates the playout channel count, prepares the device and
// negotiates the playout buffer.
func (s *Session) InitPlayout() error {
	return s.initDirection(Playout)
}

// InitRecording validates the recording channel count, prepares the device
// and negotiates the recording buffer.
func (s *Session) InitRecording() error {
	return s.initDirection(Recording)
}

func (s *Session) initDirection(d Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	channels, err := s.Channels(d)
	if err != nil {
		return err
	}
	expected := 1
	if s.backend.StereoAvailable(d) {
		expected = 2
	}
	if channels != expected {
		return &ConfigError{Direction: d, Channels: channels, Expected: expected}
	}

	dir := s.dirs[d]
	if dir.state.Initialized {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, d)
	}

	var ok bool
	if d == Playout {
		ok = s.backend.OnInitPlayout()
	} else {
		ok = s.backend.OnInitRecording()
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInitRejected, d)
	}

	if err := s.negotiate(dir, channels); err != nil {
		return err
	}
	dir.state.Initialized = true
	return nil
}

// StartPlayout starts the playout device. It fails if playout is not
// initialized and does nothing if playout is already running.
func (s *Session) StartPlayout() error {
	return s.startDirection(Playout)
}

// StartRecording starts the recording device. It fails if recording is not
// initialized and does nothing if recording is already running.
func (s *Session) StartRecording() error {
	return s.startDirection(Recording)
}

func (s *Session) startDirection(d Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}

	dir := s.dirs[d]
	if !dir.state.Initialized {
		return fmt.Errorf("%w: %s", ErrNotInitialized, d)
	}
	if dir.state.Active {
		return nil
	}
	if d == Playout {
		s.backend.OnStartPlayout()
	} else {
		s.backend.OnStartRecording()
	}
	dir.state.Active = true
	log.Printf("adm: %s started", d)
	return nil
}

// StopPlayout stops playout and returns it to the uninitialized state, so
// the next start needs InitPlayout again. It is a no-op when playout is not
// initialized.
func (s *Session) StopPlayout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(Playout)
}

// StopRecording stops recording and returns it to the uninitialized state.
// It is a no-op when recording is not initialized.
func (s *Session) StopRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(Recording)
}

func (s *Session) stopLocked(d Direction) {
	dir := s.dirs[d]
	if !dir.state.Initialized {
		return
	}
	if d == Playout {
		s.backend.OnStopPlayout()
	} else {
		s.backend.OnStopRecording()
	}

	release := dir.guard.Acquire()
	dir.buf = nil
	release()

	dir.state = DirectionState{}
	log.Printf("adm: %s stopped", d)
}

// Close stops both directions, terminates the session and drops the buffer
// references. Later lifecycle calls fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil
	}
	for _, d := range Directions {
		s.stopLocked(d)
	}
	s.terminateLocked()
	s.closed.Store(true)
	return nil
}

// State returns a snapshot of d's lifecycle flags.
func (s *Session) State(d Direction) DirectionState {
	if !d.Valid() {
		return DirectionState{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[d].state
}

// PlayoutIsInitialized reports whether playout has been initialized.
func (s *Session) PlayoutIsInitialized() bool {
	return s.State(Playout).Initialized
}

// RecordingIsInitialized reports whether recording has been initialized.
func (s *Session) RecordingIsInitialized() bool {
	return s.State(Recording).Initialized
}

// Playing reports whether playout is active.
func (s *Session) Playing() bool {
	return s.State(Playout).Active
}

// Recording reports whether recording is active.
func (s *Session) Recording() bool {
	return s.State(Recording).Active
}

// Channels returns the engine's channel count for d, which must be 1 or 2.
func (s *Session) Channels(d Direction) (int, error) {
	if !d.Valid() {
		return 0, &ConfigError{Direction: d}
	}
	n := s.backend.Channels(d)
	if n < 1 || n > 2 {
		return 0, &ConfigError{Direction: d, Channels: n}
	}
	return n, nil
}

// StereoAvailable reports the device's stereo capability for d.
func (s *Session) StereoAvailable(d Direction) bool {
	return d.Valid() && s.backend.StereoAvailable(d)
}

// PlayoutDelay returns the device's playout latency estimate, or zero when
// the device does not report one.
func (s *Session) PlayoutDelay() time.Duration {
	return s.delay(Playout)
}

// RecordingDelay returns the device's recording latency estimate, or zero
// when the device does not report one.
func (s *Session) RecordingDelay() time.Duration {
	return s.delay(Recording)
}

func (s *Session) delay(d Direction) time.Duration {
	if r, ok := s.device().(DelayReporter); ok && d.Valid() {
		return r.Delay(d)
	}
	return 0
}

// Warning reports whether the device has raised a warning for d.
func (s *Session) Warning(d Direction) bool {
	r, ok := s.device().(StatusReporter)
	return ok && d.Valid() && r.Warning(d)
}

// Error reports whether the device has raised an error for d.
func (s *Session) Error(d Direction) bool {
	r, ok := s.device().(StatusReporter)
	return ok && d.Valid() && r.Error(d)
}

// ClearWarning lowers d's warning flag.
func (s *Session) ClearWarning(d Direction) {
	if r, ok := s.device().(StatusReporter); ok && d.Valid() {
		r.ClearWarning(d)
	}
}

// ClearError lowers d's error flag.
func (s *Session) ClearError(d Direction) {
	if r, ok := s.device().(StatusReporter); ok && d.Valid() {
		r.ClearError(d)
	}
}

// device unwraps a composed backend so optional device interfaces are visible.
func (s *Session) device() Device {
	if c, ok := s.backend.(composite); ok {
		return c.Device
	}
	return s.backend
}

// PumpStats returns the traffic counters for d.
func (s *Session) PumpStats(d Direction) PumpStats {
	if !d.Valid() {
		return PumpStats{}
	}
	dir := s.dirs[d]
	return PumpStats{
		Bytes:     dir.bytes.Load(),
		Bursts:    dir.bursts.Load(),
		Contended: dir.contended.Load(),
	}
}
