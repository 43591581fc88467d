// ABOUTME: PCM audio encoder
// ABOUTME: Passes 16-bit PCM through or widens it to packed 24-bit
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts 16-bit PCM to the link bit depth
func (e *PCMEncoder) Encode(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("odd PCM length: %d", len(pcm))
	}

	if e.bitDepth == 16 {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out, nil
	}

	n := len(pcm) / 2
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		b := audio.SampleTo24Bit(audio.SampleFromInt16(sample))
		copy(out[i*3:], b[:])
	}
	return out, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
