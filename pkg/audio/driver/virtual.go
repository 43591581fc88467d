// ABOUTME: Software audio device driven by a ticker or by explicit steps
// ABOUTME: Writes played audio to an io.Writer and records from an io.Reader
package driver

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
)

// Virtual is a device with no hardware behind it. Each burst it pulls one
// 10ms playout buffer from the pump into Output and pushes one 10ms
// recording buffer read from Input, both sized at the configured format.
type Virtual struct {
	base

	mu      sync.Mutex
	running [2]chan struct{}
	done    [2]sync.WaitGroup
	scratch [2][]byte
}

// NewVirtual creates a virtual device
func NewVirtual(cfg Config) *Virtual {
	return &Virtual{base: base{cfg: cfg}}
}

func (v *Virtual) Name() string { return "virtual" }

func (v *Virtual) OnInit() error { return nil }
func (v *Virtual) OnTerminate()  {}

func (v *Virtual) OnInitPlayout() bool   { return v.prepare(adm.Playout) }
func (v *Virtual) OnInitRecording() bool { return v.prepare(adm.Recording) }

func (v *Virtual) prepare(d adm.Direction) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scratch[d] = make([]byte, v.bufferBytes(d))
	return true
}

func (v *Virtual) OnStartPlayout()   { v.start(adm.Playout) }
func (v *Virtual) OnStopPlayout()    { v.stop(adm.Playout) }
func (v *Virtual) OnStartRecording() { v.start(adm.Recording) }
func (v *Virtual) OnStopRecording()  { v.stop(adm.Recording) }

// Delay reports one period of latency.
func (v *Virtual) Delay(adm.Direction) time.Duration {
	return v.cfg.Period
}

// Step runs one burst for d on the calling goroutine.
func (v *Virtual) Step(d adm.Direction) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.burst(d)
}

func (v *Virtual) burst(d adm.Direction) {
	buf := v.scratch[d]
	if buf == nil {
		return
	}

	if d == adm.Playout {
		v.fillPlayout(buf)
		if v.cfg.Output != nil {
			if _, err := v.cfg.Output.Write(buf); err != nil {
				v.SetError(adm.Playout)
			}
		}
		return
	}

	if v.cfg.Input == nil {
		clear(buf)
	} else if n, err := io.ReadFull(v.cfg.Input, buf); err != nil {
		clear(buf[n:])
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			v.SetError(adm.Recording)
		}
	}
	v.deliverRecording(buf)
}

func (v *Virtual) start(d adm.Direction) {
	if v.cfg.Period <= 0 {
		return
	}
	stop := make(chan struct{})
	v.running[d] = stop
	v.done[d].Add(1)

	go func() {
		defer v.done[d].Done()
		ticker := time.NewTicker(v.cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				v.Step(d)
			}
		}
	}()
	log.Printf("virtual: %s ticking every %v", d, v.cfg.Period)
}

func (v *Virtual) stop(d adm.Direction) {
	if v.running[d] != nil {
		close(v.running[d])
		v.done[d].Wait()
		v.running[d] = nil
	}
	v.mu.Lock()
	v.scratch[d] = nil
	v.mu.Unlock()
}
