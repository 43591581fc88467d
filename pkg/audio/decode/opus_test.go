// ABOUTME: Tests for Opus decoder
// ABOUTME: Tests decoder creation and a full encode/decode frame
package decode

import (
	"testing"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/encode"
)

func TestNewOpus(t *testing.T) {
	decoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	decoder, err := NewOpus(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}
	if err.Error() != "invalid codec for Opus decoder: pcm" {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestOpusDecodeProducesOneBuffer(t *testing.T) {
	format := audio.Format{Codec: "opus", SampleRate: 48000, Channels: 1, BitDepth: 16}

	enc, err := encode.NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	dec, err := NewOpus(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	packet, err := enc.Encode(make([]byte, format.BufferBytes()))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	pcm, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(pcm) != format.BufferBytes() {
		t.Errorf("decoded %d bytes, want %d", len(pcm), format.BufferBytes())
	}
}
