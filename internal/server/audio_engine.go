// ABOUTME: Audio streaming engine for the bridge server
// ABOUTME: Sends each playout client one encoded 10ms chunk per tick
package server

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/encode"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/source"
)

// ChunkDuration is the audio carried by one playout chunk
const ChunkDuration = time.Second / audio.BuffersPerSecond

// stream is one client's playout pipeline
type stream struct {
	client  *Client
	source  source.Source
	encoder encode.Encoder
	buf     []byte
	failed  bool
}

// AudioEngine manages audio generation and streaming
type AudioEngine struct {
	server *Server

	streams   map[string]*stream
	streamsMu sync.Mutex

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewAudioEngine creates a new audio engine
func NewAudioEngine(server *Server) *AudioEngine {
	return &AudioEngine{
		server:   server,
		streams:  make(map[string]*stream),
		stopChan: make(chan struct{}),
	}
}

// Start ticks until Stop
func (e *AudioEngine) Start() {
	log.Printf("Audio engine starting")

	ticker := time.NewTicker(ChunkDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-e.stopChan:
			log.Printf("Audio engine stopping")
			e.closeAll()
			return
		}
	}
}

// Stop stops the audio engine
func (e *AudioEngine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// AddClient opens a source in the client's playout format and announces
// the stream.
func (e *AudioEngine) AddClient(client *Client) error {
	format := toFormat(*client.Playout)
	if format.Codec == "opus" && !encode.SupportedOpusRate(format.SampleRate) {
		log.Printf("Opus does not support %dHz, streaming PCM to %s", format.SampleRate, client.Name)
		format.Codec = "pcm"
	}
	if format.BitDepth == 0 {
		format.BitDepth = audio.BitsPerSample
	}
	if format.BufferBytes() <= 0 {
		return fmt.Errorf("invalid playout format %s", format)
	}

	src, err := e.openSource(client, format)
	if err != nil {
		return err
	}
	enc, err := encode.New(format)
	if err != nil {
		src.Close()
		return err
	}

	st := &stream{
		client:  client,
		source:  src,
		encoder: enc,
		buf:     make([]byte, format.BufferBytes()),
	}

	start := protocol.StreamStart{
		Codec:      format.Codec,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
		Source:     src.Name(),
	}
	if err := e.server.sendMessage(client, protocol.MsgStreamStart, start); err != nil {
		log.Printf("Warning: Could not send stream/start to %s: %v", client.Name, err)
	}

	e.streamsMu.Lock()
	e.streams[client.ID] = st
	e.streamsMu.Unlock()

	log.Printf("Audio engine: streaming %s to %s as %s", src.Name(), client.Name, format)
	return nil
}

// openSource picks the echo loop or the configured source
func (e *AudioEngine) openSource(client *Client, format audio.Format) (source.Source, error) {
	if e.server.config.Echo && client.Recording != nil {
		echo := newEchoSource(client.Recording.SampleRate, client.Recording.Channels)
		client.echo = echo
		return source.Adapt(echo, format.SampleRate, format.Channels), nil
	}
	return source.OpenAdapted(e.server.config.Source, format.SampleRate, format.Channels)
}

// RemoveClient stops streaming to a client
func (e *AudioEngine) RemoveClient(client *Client) {
	e.streamsMu.Lock()
	st, ok := e.streams[client.ID]
	delete(e.streams, client.ID)
	e.streamsMu.Unlock()

	if ok {
		st.close()
		log.Printf("Audio engine: removed client %s", client.Name)
	}
}

// tick sends one chunk to every stream. Sends happen under streamsMu so a
// removed client never sees a send after RemoveClient returns.
func (e *AudioEngine) tick() {
	timestamp := e.server.getClockMicros()

	e.streamsMu.Lock()
	defer e.streamsMu.Unlock()

	for _, st := range e.streams {
		payload, err := st.next()
		if err != nil {
			if !st.failed {
				log.Printf("Stream to %s failed: %v", st.client.Name, err)
				st.failed = true
			}
			continue
		}
		chunk := protocol.EncodeChunk(protocol.ChunkPlayout, timestamp, payload)
		if err := e.server.sendBinary(st.client, chunk); err != nil && e.server.config.Debug {
			log.Printf("[DEBUG] Dropping chunk for %s: %v", st.client.Name, err)
		}
	}
}

// next reads and encodes one buffer; an exhausted source yields silence
func (st *stream) next() ([]byte, error) {
	n, err := io.ReadFull(st.source, st.buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	clear(st.buf[n:])
	return st.encoder.Encode(st.buf)
}

func (st *stream) close() {
	st.source.Close()
	st.encoder.Close()
}

func (e *AudioEngine) closeAll() {
	e.streamsMu.Lock()
	defer e.streamsMu.Unlock()
	for id, st := range e.streams {
		st.close()
		delete(e.streams, id)
	}
}
