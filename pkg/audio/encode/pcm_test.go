// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests 16-bit passthrough and 24-bit widening
package encode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

func pcmFormat(bitDepth int) audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: bitDepth}
}

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"valid 16-bit PCM", pcmFormat(16), ""},
		{"valid 24-bit PCM", pcmFormat(24), ""},
		{"invalid codec", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, "invalid codec"},
		{"unsupported bit depth", pcmFormat(32), "unsupported bit depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil || encoder == nil {
				t.Fatalf("NewPCM() = %v, %v", encoder, err)
			}
		})
	}
}

func TestPCMEncoder_16BitPassthrough(t *testing.T) {
	encoder, err := NewPCM(pcmFormat(16))
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	pcm := []byte{0x01, 0x02, 0xFF, 0x7F}
	out, err := encoder.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if !bytes.Equal(out, pcm) {
		t.Errorf("Encode() = %v, want %v", out, pcm)
	}

	// output must not alias the device buffer
	pcm[0] = 0x55
	if out[0] == 0x55 {
		t.Error("Encode() returned the input slice")
	}
}

func TestPCMEncoder_24BitWidening(t *testing.T) {
	encoder, err := NewPCM(pcmFormat(24))
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	samples := []int16{0, 32767, -32768, 0x1234}
	pcm := make([]byte, len(samples)*2)
	audio.Int16ToBytes(pcm, samples)

	out, err := encoder.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(out) != len(samples)*3 {
		t.Fatalf("Encode() output size = %d, want %d", len(out), len(samples)*3)
	}
	for i, s := range samples {
		want := audio.SampleTo24Bit(audio.SampleFromInt16(s))
		got := [3]byte{out[i*3], out[i*3+1], out[i*3+2]}
		if got != want {
			t.Errorf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestPCMEncoder_OddLength(t *testing.T) {
	encoder, _ := NewPCM(pcmFormat(16))
	if _, err := encoder.Encode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd PCM length")
	}
}

func TestNewSelectsCodec(t *testing.T) {
	enc, err := New(pcmFormat(16))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, ok := enc.(*PCMEncoder); !ok {
		t.Errorf("New() returned %T", enc)
	}

	if _, err := New(audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 16}); err == nil {
		t.Error("expected error for unsupported codec")
	}
}
