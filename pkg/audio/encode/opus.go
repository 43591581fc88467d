// ABOUTME: Opus audio encoder
// ABOUTME: Encodes one 10ms buffer of 16-bit PCM per Opus packet
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxPacketSize bounds a single Opus packet
const maxPacketSize = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int
	pcm       []int16
	packet    []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}
	if !SupportedOpusRate(format.SampleRate) {
		return nil, fmt.Errorf("unsupported opus sample rate: %d", format.SampleRate)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frameSize := audio.FramesPerBuffer(format.SampleRate)
	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: frameSize,
		pcm:       make([]int16, frameSize*format.Channels),
		packet:    make([]byte, maxPacketSize),
	}, nil
}

// Encode converts one 10ms PCM buffer to an Opus packet
func (e *OpusEncoder) Encode(pcm []byte) ([]byte, error) {
	want := e.frameSize * e.channels * audio.BytesPerSample
	if len(pcm) != want {
		return nil, fmt.Errorf("opus frame must be %d bytes, got %d", want, len(pcm))
	}

	audio.BytesToInt16(e.pcm, pcm)
	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	out := make([]byte, n)
	copy(out, e.packet[:n])
	return out, nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}

// SupportedOpusRate reports whether Opus can run at rate
func SupportedOpusRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}
