// ABOUTME: Echo source feeding a client's recording back to its playout
// ABOUTME: Queues decoded PCM and pads with silence when empty
package server

import (
	"sync"

	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
)

// maxEchoBuffers bounds queued echo audio to half a second
const maxEchoBuffers = 50

type echoSource struct {
	mu       sync.Mutex
	rate     int
	channels int
	queue    []byte
	limit    int
}

func newEchoSource(rate, channels int) *echoSource {
	return &echoSource{
		rate:     rate,
		channels: channels,
		limit:    audio.BufferBytes(rate, channels) * maxEchoBuffers,
	}
}

// Write queues recorded PCM, discarding the oldest audio past the limit
func (s *echoSource) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, p...)
	over := len(s.queue) - s.limit
	if over <= 0 {
		return
	}
	frameBytes := audio.BytesPerSample * s.channels
	if rem := over % frameBytes; rem != 0 {
		over += frameBytes - rem
	}
	if over > len(s.queue) {
		over = len(s.queue)
	}
	s.queue = append(s.queue[:0], s.queue[over:]...)
}

// Read always fills p, with silence where nothing was recorded
func (s *echoSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(p, s.queue)
	s.queue = append(s.queue[:0], s.queue[n:]...)
	clear(p[n:])
	return len(p), nil
}

func (s *echoSource) SampleRate() int { return s.rate }
func (s *echoSource) Channels() int   { return s.channels }
func (s *echoSource) Name() string    { return "echo" }
func (s *echoSource) Close() error    { return nil }
