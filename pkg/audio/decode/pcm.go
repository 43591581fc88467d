// ABOUTME: PCM audio decoder
// ABOUTME: Passes 16-bit PCM through or narrows packed 24-bit to 16-bit
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes at the link bit depth to 16-bit PCM
func (d *PCMDecoder) Decode(data []byte) ([]byte, error) {
	if d.bitDepth == 16 {
		out := make([]byte, len(data)&^1)
		copy(out, data)
		return out, nil
	}

	n := len(data) / 3
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
		sample := audio.SampleToInt16(audio.SampleFrom24Bit(b))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
