// ABOUTME: FLAC file source backed by mewkiz/flac
// ABOUTME: Narrows or widens any bit depth to 16-bit and loops on EOF
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
)

// FLAC reads a looping FLAC file
type FLAC struct {
	file     *os.File
	stream   *flac.Stream
	rate     int
	channels int
	bitDepth int
	title    string
	pending  []byte
}

// NewFLAC opens a FLAC file
func NewFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	s := &FLAC{
		file:     f,
		stream:   stream,
		rate:     int(stream.Info.SampleRate),
		channels: int(stream.Info.NChannels),
		bitDepth: int(stream.Info.BitsPerSample),
		title:    titleOf(path),
	}
	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		s.title, s.rate, s.channels, s.bitDepth)
	return s, nil
}

func (s *FLAC) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if err := s.decodeFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *FLAC) decodeFrame() error {
	frame, err := s.stream.ParseNext()
	if err == io.EOF {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		stream, decErr := flac.New(s.file)
		if decErr != nil {
			return fmt.Errorf("failed to restart FLAC stream: %w", decErr)
		}
		s.stream = stream
		return nil
	}
	if err != nil {
		return err
	}

	shift := s.bitDepth - 16
	block := int(frame.BlockSize)
	out := make([]byte, 0, block*s.channels*2)
	for i := 0; i < block; i++ {
		for ch := 0; ch < s.channels; ch++ {
			v := frame.Subframes[ch].Samples[i]
			if shift > 0 {
				v >>= shift
			} else if shift < 0 {
				v <<= -shift
			}
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v)))
		}
	}
	s.pending = out
	return nil
}

func (s *FLAC) SampleRate() int { return s.rate }
func (s *FLAC) Channels() int   { return s.channels }
func (s *FLAC) Name() string    { return s.title }
func (s *FLAC) Close() error    { return s.file.Close() }
