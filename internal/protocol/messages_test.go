// ABOUTME: Tests for link message parsing and chunk framing
// ABOUTME: Covers malformed input handling
package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	data, err := json.Marshal(Message{
		Type:    MsgStreamStart,
		Payload: StreamStart{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.Type != MsgStreamStart {
		t.Errorf("Type = %q", env.Type)
	}

	var start StreamStart
	if err := env.Into(&start); err != nil {
		t.Fatalf("Into failed: %v", err)
	}
	if start.Codec != "opus" || start.SampleRate != 48000 {
		t.Errorf("payload = %+v", start)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"missing type", `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIntoEmptyPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"server/hello"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var hello ServerHello
	if err := env.Into(&hello); err == nil {
		t.Error("expected error for missing payload")
	}
}

func TestChunkFraming(t *testing.T) {
	frame := EncodeChunk(ChunkRecording, 123456789, []byte{1, 2, 3})
	if len(frame) != ChunkHeaderSize+3 || frame[0] != ChunkRecording {
		t.Fatalf("frame = %v", frame)
	}

	kind, ts, payload, err := DecodeChunk(frame)
	if err != nil {
		t.Fatalf("DecodeChunk failed: %v", err)
	}
	if kind != ChunkRecording || ts != 123456789 || !bytes.Equal(payload, []byte{1, 2, 3}) {
		t.Errorf("got kind=%d ts=%d payload=%v", kind, ts, payload)
	}
}

func TestDecodeChunkRejectsBadFrames(t *testing.T) {
	if _, _, _, err := DecodeChunk([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short frame")
	}
	if _, _, _, err := DecodeChunk(EncodeChunk(7, 0, nil)); err == nil {
		t.Error("expected error for unknown kind")
	}
}
