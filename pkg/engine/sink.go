// ABOUTME: Consumers of recorded audio buffers
// ABOUTME: Sink receives each full 10ms recording buffer with its format
package engine

import (
	"io"
	"sync/atomic"
)

// Sink receives recorded audio, one full buffer at a time. data is only
// valid for the duration of the call.
type Sink interface {
	OnData(data []byte, bitsPerSample, sampleRate, channels, frames int)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(data []byte, bitsPerSample, sampleRate, channels, frames int)

func (f SinkFunc) OnData(data []byte, bitsPerSample, sampleRate, channels, frames int) {
	f(data, bitsPerSample, sampleRate, channels, frames)
}

// Discard drops recorded audio.
var Discard Sink = SinkFunc(func([]byte, int, int, int, int) {})

// WriterSink writes recorded PCM to w. Write errors are counted, not
// returned; the recording thread never blocks on them.
type WriterSink struct {
	w      io.Writer
	errors atomic.Int64
}

// NewWriterSink creates a sink that appends raw PCM to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) OnData(data []byte, bitsPerSample, sampleRate, channels, frames int) {
	if _, err := s.w.Write(data); err != nil {
		s.errors.Add(1)
	}
}

// Errors returns the number of failed writes.
func (s *WriterSink) Errors() int64 {
	return s.errors.Load()
}
