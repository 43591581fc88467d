// ABOUTME: Playout sources producing 16-bit interleaved PCM
// ABOUTME: Opens files and URLs by type, falls back to a test tone
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source produces interleaved 16-bit little-endian PCM.
type Source interface {
	io.Reader
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Name describes the source for logs and the UI
	Name() string
	// Close closes the audio source
	Close() error
}

// Open creates a source from a file path or HTTP URL. An empty path
// returns a 440Hz tone at rate and channels.
func Open(pathOrURL string, rate, channels int) (Source, error) {
	if pathOrURL == "" {
		return NewTone(440, rate, channels), nil
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return NewHTTPMP3(pathOrURL)
	}

	if _, err := os.Stat(pathOrURL); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", pathOrURL)
	}

	switch ext := strings.ToLower(filepath.Ext(pathOrURL)); ext {
	case ".mp3":
		return NewMP3(pathOrURL)
	case ".flac":
		return NewFLAC(pathOrURL)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// OpenAdapted opens pathOrURL and converts it to rate and channels.
func OpenAdapted(pathOrURL string, rate, channels int) (Source, error) {
	src, err := Open(pathOrURL, rate, channels)
	if err != nil {
		return nil, err
	}
	return Adapt(src, rate, channels), nil
}

func titleOf(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
