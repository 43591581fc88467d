// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests 10ms frame encoding and rate validation
package encode

import (
	"strings"
	"testing"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"48kHz stereo", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, ""},
		{"16kHz mono", audio.Format{Codec: "opus", SampleRate: 16000, Channels: 1, BitDepth: 16}, ""},
		{"invalid codec", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}, "invalid codec"},
		{"44.1kHz", audio.Format{Codec: "opus", SampleRate: 44100, Channels: 2, BitDepth: 16}, "unsupported opus sample rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil || encoder == nil {
				t.Fatalf("NewOpus() = %v, %v", encoder, err)
			}
		})
	}
}

func TestOpusEncoder_Encode10ms(t *testing.T) {
	format := audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}
	encoder, err := NewOpus(format)
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	pcm := make([]byte, format.BufferBytes())
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16((i % 100) * 300)
	}
	audio.Int16ToBytes(pcm, samples)

	packet, err := encoder.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 || len(packet) >= len(pcm) {
		t.Errorf("unexpected packet size %d for %d PCM bytes", len(packet), len(pcm))
	}
}

func TestOpusEncoder_WrongFrameSize(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	if _, err := encoder.Encode(make([]byte, 100)); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestSupportedOpusRate(t *testing.T) {
	for _, rate := range []int{8000, 12000, 16000, 24000, 48000} {
		if !SupportedOpusRate(rate) {
			t.Errorf("%d should be supported", rate)
		}
	}
	for _, rate := range []int{0, 22050, 44100, 96000} {
		if SupportedOpusRate(rate) {
			t.Errorf("%d should not be supported", rate)
		}
	}
}
