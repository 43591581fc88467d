// ABOUTME: Bridge composes driver, engine and session behind one API
// ABOUTME: Starts, stops and renegotiates each direction and reports status
package bridge

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/driver"
	"github.com/Resonate-Protocol/audiobridge/pkg/engine"
	"github.com/google/uuid"
)

// Config holds bridge configuration
type Config struct {
	// Driver names the backend (see driver.Names). Default: malgo
	Driver string

	// SampleRate is the device rate for both directions. Default: 48000
	SampleRate int

	PlayoutStereo   bool
	RecordingStereo bool

	// Playout and Recording select the directions Start brings up
	Playout   bool
	Recording bool

	// DeviceIndex selects a hardware device; negative uses the default
	DeviceIndex int

	// Source supplies playout audio; nil plays silence
	Source io.Reader

	// Sink receives recorded buffers; nil discards them
	Sink engine.Sink

	// Volume is the initial playout volume (0-100). Nil means 100
	Volume *int

	// Virtual driver only, see driver.Config
	Period time.Duration
	Output io.Writer
	Input  io.Reader

	// OnStateChange is called after every lifecycle change
	OnStateChange func(Status)

	// OnError is called when a lifecycle call fails
	OnError func(error)
}

// DirectionStatus describes one direction
type DirectionStatus struct {
	adm.DirectionState
	Channels   int
	SampleRate int
	Delay      time.Duration
	Warning    bool
	Error      bool
	Pump       adm.PumpStats
	// Dropped counts device bursts lost to pump errors
	Dropped int64
}

// StateName returns "active", "initialized" or "stopped"
func (d DirectionStatus) StateName() string {
	switch {
	case d.Active:
		return "active"
	case d.Initialized:
		return "initialized"
	default:
		return "stopped"
	}
}

// Status is a snapshot of the bridge
type Status struct {
	ID          string
	Driver      string
	Initialized bool
	Playout     DirectionStatus
	Recording   DirectionStatus
	Volume      int
	Muted       bool
}

// Direction returns the status of d
func (s Status) Direction(d adm.Direction) DirectionStatus {
	if d == adm.Recording {
		return s.Recording
	}
	return s.Playout
}

// dropCounter is implemented by drivers that count lost bursts
type dropCounter interface {
	Dropped(d adm.Direction) int64
}

// Bridge drives one audio device
type Bridge struct {
	config Config
	id     string

	drv     driver.Driver
	eng     *engine.Engine
	session *adm.Session

	// serializes compound lifecycle operations such as Restart
	mu sync.Mutex
}

// Volume returns a pointer for Config.Volume
func Volume(percent int) *int {
	return &percent
}

// New creates a bridge. The device is not touched until Start.
func New(config Config) (*Bridge, error) {
	if config.Driver == "" {
		config.Driver = "malgo"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Volume == nil {
		config.Volume = Volume(100)
	}

	drv, err := driver.New(config.Driver, driver.Config{
		SampleRate:        config.SampleRate,
		PlayoutChannels:   channels(config.PlayoutStereo),
		RecordingChannels: channels(config.RecordingStereo),
		DeviceIndex:       config.DeviceIndex,
		Period:            config.Period,
		Output:            config.Output,
		Input:             config.Input,
	})
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", config.Driver, err)
	}

	eng := engine.New(engine.Config{
		PlayoutStereo:   config.PlayoutStereo,
		RecordingStereo: config.RecordingStereo,
		Sink:            config.Sink,
		Source:          config.Source,
	})
	eng.SetVolume(*config.Volume)

	session := adm.NewSession(adm.Compose(drv, eng))
	drv.Attach(session)

	return &Bridge{
		config:  config,
		id:      uuid.New().String(),
		drv:     drv,
		eng:     eng,
		session: session,
	}, nil
}

// Start initializes the device and starts the configured directions
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyStateChange()

	if err := b.session.Init(); err != nil {
		return b.fail(fmt.Errorf("init device: %w", err))
	}

	for _, d := range adm.Directions {
		if !b.enabled(d) {
			continue
		}
		if err := b.startLocked(d); err != nil {
			return b.fail(err)
		}
	}
	log.Printf("Bridge %s started (%s, %dHz)", b.id, b.drv.Name(), b.config.SampleRate)
	return nil
}

// Stop stops both directions and leaves the device initialized
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session.StopPlayout()
	b.session.StopRecording()
	b.notifyStateChange()
}

// StartDirection initializes and starts d. It is a no-op when d is active.
func (b *Bridge) StartDirection(d adm.Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyStateChange()

	if err := b.session.Init(); err != nil {
		return b.fail(fmt.Errorf("init device: %w", err))
	}
	if err := b.startLocked(d); err != nil {
		return b.fail(err)
	}
	return nil
}

// StopDirection stops d; a later start renegotiates its buffer
func (b *Bridge) StopDirection(d adm.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked(d)
	b.notifyStateChange()
}

// Toggle stops d when it is active and starts it otherwise
func (b *Bridge) Toggle(d adm.Direction) error {
	if b.session.State(d).Active {
		b.StopDirection(d)
		return nil
	}
	return b.StartDirection(d)
}

// Restart stops d and brings it back up, renegotiating the buffer
func (b *Bridge) Restart(d adm.Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.notifyStateChange()

	b.stopLocked(d)
	if err := b.startLocked(d); err != nil {
		return b.fail(err)
	}
	log.Printf("Bridge %s restarted %s", b.id, d)
	return nil
}

func (b *Bridge) startLocked(d adm.Direction) error {
	state := b.session.State(d)
	if state.Active {
		return nil
	}
	if !state.Initialized {
		var err error
		if d == adm.Playout {
			err = b.session.InitPlayout()
		} else {
			err = b.session.InitRecording()
		}
		if err != nil {
			return fmt.Errorf("init %s: %w", d, err)
		}
	}

	var err error
	if d == adm.Playout {
		err = b.session.StartPlayout()
	} else {
		err = b.session.StartRecording()
	}
	if err != nil {
		return fmt.Errorf("start %s: %w", d, err)
	}
	b.session.ClearWarning(d)
	return nil
}

func (b *Bridge) stopLocked(d adm.Direction) {
	if d == adm.Playout {
		b.session.StopPlayout()
	} else {
		b.session.StopRecording()
	}
}

// SetVolume sets the playout volume (0-100)
func (b *Bridge) SetVolume(volume int) {
	b.eng.SetVolume(volume)
	b.notifyStateChange()
}

// SetMuted mutes or unmutes playout
func (b *Bridge) SetMuted(muted bool) {
	b.eng.SetMuted(muted)
	b.notifyStateChange()
}

// SetSource replaces the playout source
func (b *Bridge) SetSource(r io.Reader) {
	b.eng.SetSource(r)
}

// SetSink replaces the recording sink
func (b *Bridge) SetSink(s engine.Sink) {
	b.eng.SetSink(s)
}

// Status returns a snapshot of lifecycle state and counters
func (b *Bridge) Status() Status {
	return Status{
		ID:          b.id,
		Driver:      b.drv.Name(),
		Initialized: b.session.Initialized(),
		Playout:     b.direction(adm.Playout),
		Recording:   b.direction(adm.Recording),
		Volume:      b.eng.Volume(),
		Muted:       b.eng.Muted(),
	}
}

func (b *Bridge) direction(d adm.Direction) DirectionStatus {
	st := DirectionStatus{
		DirectionState: b.session.State(d),
		SampleRate:     b.drv.SampleRate(d),
		Warning:        b.session.Warning(d),
		Error:          b.session.Error(d),
		Pump:           b.session.PumpStats(d),
	}
	st.Channels, _ = b.session.Channels(d)
	if d == adm.Playout {
		st.Delay = b.session.PlayoutDelay()
	} else {
		st.Delay = b.session.RecordingDelay()
	}
	if dc, ok := b.drv.(dropCounter); ok {
		st.Dropped = dc.Dropped(d)
	}
	return st
}

// Stats returns engine counters
func (b *Bridge) Stats() engine.Stats {
	return b.eng.Stats()
}

// ID returns the bridge's unique identifier
func (b *Bridge) ID() string { return b.id }

// Session returns the underlying device session
func (b *Bridge) Session() *adm.Session { return b.session }

// Engine returns the buffer-owning engine
func (b *Bridge) Engine() *engine.Engine { return b.eng }

// Driver returns the device driver
func (b *Bridge) Driver() driver.Driver { return b.drv }

// Close stops everything and releases the device. It is safe to call twice.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.session.Close(); err != nil {
		return err
	}
	b.notifyStateChange()
	return nil
}

func (b *Bridge) enabled(d adm.Direction) bool {
	if d == adm.Playout {
		return b.config.Playout
	}
	return b.config.Recording
}

// notifyStateChange calls the OnStateChange callback if set
func (b *Bridge) notifyStateChange() {
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(b.Status())
	}
}

// fail reports err through OnError and returns it
func (b *Bridge) fail(err error) error {
	if b.config.OnError != nil {
		b.config.OnError(err)
	} else {
		log.Printf("Bridge error: %v", err)
	}
	return err
}

func channels(stereo bool) int {
	if stereo {
		return 2
	}
	return 1
}
