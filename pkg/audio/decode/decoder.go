// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and codec selection for all audio decoders
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// Decoder decodes a codec payload to 16-bit PCM bytes
type Decoder interface {
	// Decode converts encoded audio to interleaved 16-bit little-endian PCM
	Decode(data []byte) ([]byte, error)

	// Close releases decoder resources
	Close() error
}

// New returns the decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
