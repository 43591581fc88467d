//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Reports how to enable the real driver
package driver

import "fmt"

// NewPortAudio reports that PortAudio support was not compiled in
func NewPortAudio(Config) (Driver, error) {
	return nil, fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}
