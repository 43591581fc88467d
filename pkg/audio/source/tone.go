// ABOUTME: Sine tone generator
// ABOUTME: Endless source used when no file is configured
package source

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// Tone generates a sine wave at half scale on every channel.
type Tone struct {
	mu        sync.Mutex
	frequency float64
	rate      int
	channels  int
	frame     uint64
}

// NewTone creates a tone generator
func NewTone(frequency float64, rate, channels int) *Tone {
	return &Tone{frequency: frequency, rate: rate, channels: channels}
}

// Read fills p with whole frames and never returns an error
func (t *Tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frameBytes := t.channels * 2
	frames := len(p) / frameBytes
	for i := 0; i < frames; i++ {
		x := float64(t.frame+uint64(i)) / float64(t.rate)
		v := int16(math.Sin(2*math.Pi*t.frequency*x) * 32767.0 * 0.5)
		for ch := 0; ch < t.channels; ch++ {
			binary.LittleEndian.PutUint16(p[i*frameBytes+ch*2:], uint16(v))
		}
	}
	t.frame += uint64(frames)
	return frames * frameBytes, nil
}

func (t *Tone) SampleRate() int { return t.rate }
func (t *Tone) Channels() int   { return t.channels }
func (t *Tone) Name() string    { return fmt.Sprintf("%.0fHz tone", t.frequency) }
func (t *Tone) Close() error    { return nil }
