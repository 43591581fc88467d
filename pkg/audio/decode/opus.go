// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to 16-bit PCM bytes
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxFrameSize is the largest Opus frame (120ms at 48kHz) in samples per channel
const maxFrameSize = 5760

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	pcm      []int16
}

// NewOpus creates a new Opus decoder
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:  dec,
		channels: format.Channels,
		pcm:      make([]int16, maxFrameSize*format.Channels),
	}, nil
}

// Decode converts an Opus packet to 16-bit PCM
func (d *OpusDecoder) Decode(data []byte) ([]byte, error) {
	n, err := d.decoder.Decode(data, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	samples := n * d.channels
	out := make([]byte, samples*audio.BytesPerSample)
	audio.Int16ToBytes(out, d.pcm[:samples])
	return out, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
