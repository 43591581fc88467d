// ABOUTME: Bridge link message type definitions
// ABOUTME: JSON control messages plus the binary audio chunk framing
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const (
	// Path is the websocket endpoint on the peer server
	Path = "/bridge"
	// Version is the link protocol version
	Version = 1

	MsgClientHello   = "client/hello"
	MsgServerHello   = "server/hello"
	MsgStreamStart   = "stream/start"
	MsgClientState   = "client/state"
	MsgClientGoodbye = "client/goodbye"
	MsgServerCommand = "server/command"
)

// Binary chunk kinds
const (
	ChunkPlayout   byte = 1 // server to client
	ChunkRecording byte = 2 // client to server

	// ChunkHeaderSize is kind (1 byte) plus timestamp (8 bytes)
	ChunkHeaderSize = 9
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a text frame
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("message has no type")
	}
	return env, nil
}

// Into decodes the payload into v
func (e Envelope) Into(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", e.Type, err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string       `json:"client_id"`
	Name       string       `json:"name"`
	Version    int          `json:"version"`
	DeviceInfo *DeviceInfo  `json:"device_info,omitempty"`
	Playout    *AudioFormat `json:"playout,omitempty"`
	Recording  *AudioFormat `json:"recording,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
	Driver          string `json:"driver,omitempty"`
}

// AudioFormat describes one direction's stream
type AudioFormat struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// StreamStart announces the format of the playout stream
type StreamStart struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
	Source     string `json:"source,omitempty"`
}

// ClientState reports the bridge's device state
type ClientState struct {
	Playing          bool `json:"playing"`
	Recording        bool `json:"recording"`
	PlayoutWarning   bool `json:"playout_warning"`
	RecordingWarning bool `json:"recording_warning"`
	PlayoutError     bool `json:"playout_error"`
	RecordingError   bool `json:"recording_error"`
	Volume           int  `json:"volume"`
	Muted            bool `json:"muted"`
}

// ServerCommand is a control message from the server
type ServerCommand struct {
	Command string `json:"command"` // "volume", "mute", "restart_playout", "restart_recording"
	Volume  int    `json:"volume,omitempty"`
	Mute    bool   `json:"mute,omitempty"`
}

// ClientGoodbye is sent before a client disconnects
type ClientGoodbye struct {
	Reason string `json:"reason"`
}

// EncodeChunk frames an audio payload: [kind:1][timestamp:8 big-endian][payload]
func EncodeChunk(kind byte, timestamp int64, payload []byte) []byte {
	out := make([]byte, ChunkHeaderSize+len(payload))
	out[0] = kind
	binary.BigEndian.PutUint64(out[1:ChunkHeaderSize], uint64(timestamp))
	copy(out[ChunkHeaderSize:], payload)
	return out
}

// DecodeChunk splits a binary frame into kind, timestamp and payload
func DecodeChunk(data []byte) (kind byte, timestamp int64, payload []byte, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, nil, fmt.Errorf("chunk too short: %d bytes", len(data))
	}
	kind = data[0]
	if kind != ChunkPlayout && kind != ChunkRecording {
		return 0, 0, nil, fmt.Errorf("unknown chunk kind: %d", kind)
	}
	timestamp = int64(binary.BigEndian.Uint64(data[1:ChunkHeaderSize]))
	return kind, timestamp, data[ChunkHeaderSize:], nil
}
