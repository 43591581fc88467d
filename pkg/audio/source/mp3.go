// ABOUTME: MP3 sources backed by go-mp3
// ABOUTME: Files loop on EOF, HTTP streams end with the response
package source

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 reads a looping MP3 file. go-mp3 always decodes to 16-bit stereo.
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	title   string
}

// NewMP3 opens an MP3 file
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := &MP3{file: f, decoder: decoder, title: titleOf(path)}
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", s.title, decoder.SampleRate())
	return s, nil
}

func (s *MP3) Read(p []byte) (int, error) {
	n, err := s.decoder.Read(p)
	if err == io.EOF {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return n, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		decoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return n, fmt.Errorf("failed to restart MP3 decoder: %w", decErr)
		}
		s.decoder = decoder
		return n, nil
	}
	return n, err
}

func (s *MP3) SampleRate() int { return s.decoder.SampleRate() }
func (s *MP3) Channels() int   { return 2 }
func (s *MP3) Name() string    { return s.title }
func (s *MP3) Close() error    { return s.file.Close() }

// HTTPMP3 streams MP3 from an HTTP URL
type HTTPMP3 struct {
	url      string
	response *http.Response
	decoder  *mp3.Decoder
}

// NewHTTPMP3 starts an HTTP MP3 stream
func NewHTTPMP3(url string) (*HTTPMP3, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	log.Printf("Streaming MP3 from HTTP: %s (sample rate: %d Hz)", url, decoder.SampleRate())
	return &HTTPMP3{url: url, response: resp, decoder: decoder}, nil
}

func (s *HTTPMP3) Read(p []byte) (int, error) { return s.decoder.Read(p) }
func (s *HTTPMP3) SampleRate() int            { return s.decoder.SampleRate() }
func (s *HTTPMP3) Channels() int              { return 2 }
func (s *HTTPMP3) Name() string               { return s.url }
func (s *HTTPMP3) Close() error               { return s.response.Body.Close() }
