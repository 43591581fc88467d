// ABOUTME: Software playout volume and mute
// ABOUTME: Scales 16-bit samples in place with clipping protection
package engine

import (
	"encoding/binary"
	"log"
	"math"
)

// SetVolume sets playout volume (0-100)
func (e *Engine) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	e.volume.Store(int32(volume))
	log.Printf("Volume set to %d", volume)
}

// Volume returns playout volume
func (e *Engine) Volume() int {
	return int(e.volume.Load())
}

// SetMuted sets playout mute state
func (e *Engine) SetMuted(muted bool) {
	e.muted.Store(muted)
	log.Printf("Muted: %v", muted)
}

// Muted returns playout mute state
func (e *Engine) Muted() bool {
	return e.muted.Load()
}

// applyVolume scales 16-bit little-endian samples in place
func applyVolume(data []byte, volume int, muted bool) {
	if muted || volume == 0 {
		clear(data)
		return
	}
	if volume >= 100 {
		return
	}

	multiplier := float64(volume) / 100.0
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		scaled := math.Round(float64(sample) * multiplier)
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(data[i:], uint16(int16(scaled)))
	}
}
