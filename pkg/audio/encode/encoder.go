// ABOUTME: Encoder interface definition
// ABOUTME: Common interface and codec selection for all audio encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// Encoder encodes 16-bit PCM bytes to a codec payload
type Encoder interface {
	// Encode converts interleaved 16-bit little-endian PCM to encoded data
	Encode(pcm []byte) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// New returns the encoder for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
