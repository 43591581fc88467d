// ABOUTME: Buffer-owning engine that sizes 10ms buffers per direction
// ABOUTME: Feeds recorded buffers to a Sink and fills playout from a Source
package engine

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// Config holds the engine's initial channel layout and endpoints.
type Config struct {
	PlayoutStereo   bool
	RecordingStereo bool
	// Sink receives recorded buffers. Nil discards them.
	Sink Sink
	// Source supplies playout audio. Nil plays silence.
	Source io.Reader
}

// Engine implements adm.Engine. It owns one buffer per direction, sized
// for 10ms of 16-bit audio at the rate the session negotiates.
type Engine struct {
	mu     sync.Mutex
	stereo [2]bool
	sink   Sink
	source io.Reader

	// per-direction negotiated layout, guarded by the session's AccessGuard
	dirs [2]negotiated

	volume atomic.Int32
	muted  atomic.Bool

	delivered    atomic.Int64
	refills      atomic.Int64
	underruns    atomic.Int64
	sourceErrors atomic.Int64
}

type negotiated struct {
	rate     int
	channels int
	frames   int
	buf      *adm.Buffer
}

// Stats summarizes engine activity.
type Stats struct {
	// Delivered counts recording buffers handed to the sink.
	Delivered int64
	// Refills counts playout buffers requested from the source.
	Refills int64
	// Underruns counts refills the source could not fill completely.
	Underruns int64
	// SourceErrors counts source reads that failed.
	SourceErrors int64
}

// New creates an engine.
func New(cfg Config) *Engine {
	e := &Engine{
		stereo: [2]bool{cfg.PlayoutStereo, cfg.RecordingStereo},
		sink:   cfg.Sink,
		source: cfg.Source,
	}
	if e.sink == nil {
		e.sink = Discard
	}
	e.volume.Store(100)
	return e
}

// SetStereo changes the channel count reported for d. It takes effect the
// next time d is initialized.
func (e *Engine) SetStereo(d adm.Direction, stereo bool) {
	if !d.Valid() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stereo[d] = stereo
}

// SetSource replaces the playout source.
func (e *Engine) SetSource(r io.Reader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = r
}

// SetSink replaces the recording sink. Nil discards.
func (e *Engine) SetSink(s Sink) {
	if s == nil {
		s = Discard
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = s
}

// Channels reports 2 for stereo directions, 1 for mono and 0 for an
// unknown direction.
func (e *Engine) Channels(d adm.Direction) int {
	if !d.Valid() {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stereo[d] {
		return 2
	}
	return 1
}

// ConfigureRate sizes d's buffer for rate. The previous buffer is reused
// when its size already matches. Rates under one frame per buffer yield nil.
func (e *Engine) ConfigureRate(d adm.Direction, rate int) *adm.Buffer {
	if !d.Valid() {
		return nil
	}
	channels := e.Channels(d)
	frames := audio.FramesPerBuffer(rate)
	if frames <= 0 {
		log.Printf("engine: %s rate %d Hz is too low for a 10ms buffer", d, rate)
		return nil
	}

	size := audio.BufferBytes(rate, channels)
	n := &e.dirs[d]
	if n.buf == nil || n.buf.Cap() != size {
		n.buf = adm.NewBuffer(size)
	}
	n.rate = rate
	n.channels = channels
	n.frames = frames

	log.Printf("engine: %s buffer %d bytes (%d Hz, %d ch, %d frames)", d, size, rate, channels, frames)
	return n.buf
}

// DataRecorded hands the full recording buffer to the sink.
func (e *Engine) DataRecorded() {
	n := &e.dirs[adm.Recording]
	if n.buf == nil {
		return
	}
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()

	sink.OnData(n.buf.Bytes(), audio.BitsPerSample, n.rate, n.channels, n.frames)
	e.delivered.Add(1)
}

// NeedPlayoutData fills the whole playout buffer from the source. Whatever
// the source cannot supply is played as silence.
func (e *Engine) NeedPlayoutData() {
	n := &e.dirs[adm.Playout]
	if n.buf == nil {
		return
	}
	e.refills.Add(1)

	e.mu.Lock()
	src := e.source
	e.mu.Unlock()

	data := n.buf.Bytes()
	filled := 0
	if src != nil {
		filled = e.readSource(src, data)
	}
	if filled < len(data) {
		clear(data[filled:])
		e.underruns.Add(1)
	}
	applyVolume(data, int(e.volume.Load()), e.muted.Load())
}

func (e *Engine) readSource(src io.Reader, data []byte) int {
	filled := 0
	for filled < len(data) {
		n, err := src.Read(data[filled:])
		filled += n
		if err != nil {
			if err != io.EOF {
				e.sourceErrors.Add(1)
			}
			break
		}
		if n == 0 {
			break
		}
	}
	return filled
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Delivered:    e.delivered.Load(),
		Refills:      e.refills.Load(),
		Underruns:    e.underruns.Load(),
		SourceErrors: e.sourceErrors.Load(),
	}
}
