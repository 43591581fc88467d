// ABOUTME: Oto-based playout driver
// ABOUTME: An oto player pulls 16-bit PCM from the session's playout pump
package driver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process
var (
	otoMu  sync.Mutex
	otoCtx *oto.Context
	otoFmt [2]int
)

// Oto plays audio through ebitengine/oto. It has no capture path, so
// recording init is always rejected.
type Oto struct {
	base

	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
}

// NewOto creates an oto driver
func NewOto(cfg Config) *Oto {
	return &Oto{base: base{cfg: cfg}}
}

func (o *Oto) Name() string { return "oto" }

// StereoAvailable reports playout layout; recording is never available.
func (o *Oto) StereoAvailable(d adm.Direction) bool {
	return d == adm.Playout && o.cfg.PlayoutChannels == 2
}

// OnInit creates or resumes the process-wide oto context
func (o *Oto) OnInit() error {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFmt != [2]int{o.cfg.SampleRate, o.cfg.PlayoutChannels} {
			return fmt.Errorf("oto context already running at %dHz/%dch", otoFmt[0], otoFmt[1])
		}
		if err := otoCtx.Resume(); err != nil {
			return fmt.Errorf("failed to resume oto context: %w", err)
		}
	} else {
		ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   o.cfg.SampleRate,
			ChannelCount: o.cfg.PlayoutChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   periods * time.Second / audio.BuffersPerSecond,
		})
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		otoCtx = ctx
		otoFmt = [2]int{o.cfg.SampleRate, o.cfg.PlayoutChannels}
	}

	o.mu.Lock()
	o.ctx = otoCtx
	o.mu.Unlock()
	log.Printf("oto: context ready: %dHz, %d channels", o.cfg.SampleRate, o.cfg.PlayoutChannels)
	return nil
}

// OnTerminate suspends the shared context
func (o *Oto) OnTerminate() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closePlayer()
	if o.ctx != nil {
		if err := o.ctx.Suspend(); err != nil {
			log.Printf("Warning: oto suspend error: %v", err)
		}
		o.ctx = nil
	}
}

func (o *Oto) OnInitPlayout() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ctx != nil
}

func (o *Oto) OnInitRecording() bool {
	log.Printf("oto: recording is not supported")
	return false
}

func (o *Oto) OnStartPlayout() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx == nil {
		o.SetError(adm.Playout)
		return
	}
	o.player = o.ctx.NewPlayer(pumpReader{&o.base})
	o.player.SetBufferSize(o.bufferBytes(adm.Playout) * periods)
	o.player.Play()
}

func (o *Oto) OnStopPlayout() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closePlayer()
}

func (o *Oto) OnStartRecording() {}
func (o *Oto) OnStopRecording()  {}

// closePlayer must hold o.mu
func (o *Oto) closePlayer() {
	if o.player == nil {
		return
	}
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		log.Printf("Warning: oto player close error: %v", err)
	}
	o.player = nil
}

// Delay converts the player's queued bytes to time
func (o *Oto) Delay(d adm.Direction) time.Duration {
	if d != adm.Playout {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return 0
	}
	return audio.Duration(o.player.BufferedSize(), o.cfg.SampleRate, o.cfg.PlayoutChannels)
}

// pumpReader lets oto pull playout audio; it never fails or ends.
type pumpReader struct {
	b *base
}

func (r pumpReader) Read(p []byte) (int, error) {
	r.b.fillPlayout(p)
	return len(p), nil
}
