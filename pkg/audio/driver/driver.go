// ABOUTME: Driver interface, shared configuration and the driver registry
// ABOUTME: Common pump helpers raise warnings instead of blocking callbacks
package driver

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// Driver is an adm.Device that moves audio through an attached pump.
type Driver interface {
	adm.Device
	// Attach sets the pump device callbacks use. Call it before starting
	// any direction.
	Attach(p adm.Pump)
	// Name identifies the backend.
	Name() string
}

// Config describes the device format.
type Config struct {
	SampleRate        int
	PlayoutChannels   int
	RecordingChannels int
	// DeviceIndex selects a device from Devices; negative uses the default.
	DeviceIndex int

	// Virtual driver only: Period between bursts (zero disables the
	// ticker, use Step), Output receives played audio, Input supplies
	// recorded audio.
	Period time.Duration
	Output io.Writer
	Input  io.Reader
}

// Validate checks the format fields.
func (c Config) Validate() error {
	if c.SampleRate < audio.BuffersPerSecond {
		return fmt.Errorf("sample rate %d Hz is too low", c.SampleRate)
	}
	if c.PlayoutChannels < 1 || c.PlayoutChannels > 2 {
		return fmt.Errorf("playout channels must be 1 or 2, got %d", c.PlayoutChannels)
	}
	if c.RecordingChannels < 1 || c.RecordingChannels > 2 {
		return fmt.Errorf("recording channels must be 1 or 2, got %d", c.RecordingChannels)
	}
	return nil
}

func (c Config) channels(d adm.Direction) int {
	if d == adm.Playout {
		return c.PlayoutChannels
	}
	return c.RecordingChannels
}

// Names lists the registered backends.
func Names() []string {
	return []string{"malgo", "oto", "portaudio", "virtual"}
}

// New creates the named driver.
func New(name string, cfg Config) (Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case "malgo", "":
		return NewMalgo(cfg), nil
	case "oto":
		return NewOto(cfg), nil
	case "portaudio":
		return NewPortAudio(cfg)
	case "virtual":
		return NewVirtual(cfg), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (available: %v)", name, Names())
	}
}

// DeviceInfo describes one hardware endpoint.
type DeviceInfo struct {
	Index   int
	Name    string
	Default bool
}

// base carries what every driver shares: format, status flags and the pump.
type base struct {
	adm.StatusFlags
	cfg  Config
	pump atomic.Pointer[pumpRef]

	dropped [2]atomic.Int64
}

type pumpRef struct{ adm.Pump }

func (b *base) Attach(p adm.Pump) {
	b.pump.Store(&pumpRef{p})
}

func (b *base) StereoAvailable(d adm.Direction) bool {
	return b.cfg.channels(d) == 2
}

func (b *base) SampleRate(adm.Direction) int {
	return b.cfg.SampleRate
}

// Dropped returns the number of bursts lost on d.
func (b *base) Dropped(d adm.Direction) int64 {
	if !d.Valid() {
		return 0
	}
	return b.dropped[d].Load()
}

// fillPlayout pulls out from the pump, substituting silence on failure.
func (b *base) fillPlayout(out []byte) {
	ref := b.pump.Load()
	if ref == nil {
		clear(out)
		return
	}
	if err := ref.GetPlayoutData(out, 0, len(out)); err != nil {
		clear(out)
		b.drop(adm.Playout, err)
	}
}

// deliverRecording pushes in to the pump, dropping it on failure.
func (b *base) deliverRecording(in []byte) {
	ref := b.pump.Load()
	if ref == nil {
		return
	}
	if err := ref.DataIsRecorded(in, 0, len(in)); err != nil {
		b.drop(adm.Recording, err)
	}
}

func (b *base) drop(d adm.Direction, err error) {
	if b.dropped[d].Add(1) == 1 {
		log.Printf("driver: dropping %s bursts: %v", d, err)
	}
	b.SetWarning(d)
}

// bufferBytes is the size of one 10ms device burst for d.
func (b *base) bufferBytes(d adm.Direction) int {
	return audio.BufferBytes(b.cfg.SampleRate, b.cfg.channels(d))
}
