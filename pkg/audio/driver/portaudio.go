//go:build portaudio

// ABOUTME: PortAudio driver
// ABOUTME: Opens default input and output streams with 10ms callbacks
package driver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio drives the default PortAudio devices
type PortAudio struct {
	base

	mu      sync.Mutex
	streams [2]*portaudio.Stream
}

// NewPortAudio creates a PortAudio driver
func NewPortAudio(cfg Config) (Driver, error) {
	return &PortAudio{base: base{cfg: cfg}}, nil
}

func (p *PortAudio) Name() string { return "portaudio" }

func (p *PortAudio) OnInit() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return nil
}

func (p *PortAudio) OnTerminate() {
	p.mu.Lock()
	for _, d := range adm.Directions {
		p.closeStream(d)
	}
	p.mu.Unlock()

	if err := portaudio.Terminate(); err != nil {
		log.Printf("Warning: portaudio terminate error: %v", err)
	}
}

func (p *PortAudio) OnInitPlayout() bool   { return p.openStream(adm.Playout) }
func (p *PortAudio) OnInitRecording() bool { return p.openStream(adm.Recording) }

func (p *PortAudio) openStream(d adm.Direction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeStream(d)

	channels := p.cfg.channels(d)
	frames := audio.FramesPerBuffer(p.cfg.SampleRate)
	scratch := make([]byte, p.bufferBytes(d))

	var stream *portaudio.Stream
	var err error
	if d == adm.Playout {
		stream, err = portaudio.OpenDefaultStream(0, channels, float64(p.cfg.SampleRate), frames, func(out []int16) {
			buf := sized(&scratch, len(out)*2)
			p.fillPlayout(buf)
			audio.BytesToInt16(out, buf)
		})
	} else {
		stream, err = portaudio.OpenDefaultStream(channels, 0, float64(p.cfg.SampleRate), frames, func(in []int16) {
			buf := sized(&scratch, len(in)*2)
			audio.Int16ToBytes(buf, in)
			p.deliverRecording(buf)
		})
	}
	if err != nil {
		log.Printf("portaudio: failed to open %s stream: %v", d, err)
		p.SetError(d)
		return false
	}
	p.streams[d] = stream
	return true
}

func (p *PortAudio) OnStartPlayout()   { p.startStream(adm.Playout) }
func (p *PortAudio) OnStartRecording() { p.startStream(adm.Recording) }

func (p *PortAudio) startStream(d adm.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streams[d] == nil {
		p.SetError(d)
		return
	}
	if err := p.streams[d].Start(); err != nil {
		log.Printf("portaudio: failed to start %s stream: %v", d, err)
		p.SetError(d)
	}
}

func (p *PortAudio) OnStopPlayout()   { p.stopStream(adm.Playout) }
func (p *PortAudio) OnStopRecording() { p.stopStream(adm.Recording) }

func (p *PortAudio) stopStream(d adm.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeStream(d)
}

// closeStream must hold p.mu
func (p *PortAudio) closeStream(d adm.Direction) {
	stream := p.streams[d]
	if stream == nil {
		return
	}
	if err := stream.Stop(); err != nil {
		log.Printf("Warning: portaudio %s stop error: %v", d, err)
	}
	if err := stream.Close(); err != nil {
		log.Printf("Warning: portaudio %s close error: %v", d, err)
	}
	p.streams[d] = nil
}

// Delay reports the stream's latency
func (p *PortAudio) Delay(d adm.Direction) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	stream := p.streams[d]
	if stream == nil {
		return 0
	}
	info := stream.Info()
	if d == adm.Playout {
		return info.OutputLatency
	}
	return info.InputLatency
}

func sized(buf *[]byte, n int) []byte {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	return (*buf)[:n]
}
