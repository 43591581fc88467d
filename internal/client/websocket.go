// ABOUTME: WebSocket link client for the audio bridge
// ABOUTME: Sends recorded buffers upstream and queues received playout audio
package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/encode"
	"github.com/gorilla/websocket"
)

// sendQueueSize bounds recorded chunks waiting for the network
const sendQueueSize = 50

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	DeviceInfo protocol.DeviceInfo
	// Playout and Recording are the formats requested per direction; nil
	// disables the direction on the link.
	Playout   *protocol.AudioFormat
	Recording *protocol.AudioFormat
	// BufferMs is the playout jitter buffer capacity
	BufferMs int
}

// Client links an engine to a remote peer. It is both the engine's
// recording Sink and its playout Source.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	writeMu sync.Mutex
	sendQ   chan []byte

	encoder encode.Encoder

	decMu   sync.Mutex
	decoder decode.Decoder
	format  protocol.StreamStart

	ring      *RingBuffer
	prebuffer int
	primed    atomic.Bool

	// Commands delivers server/command messages
	Commands chan protocol.ServerCommand
	// StreamStarts delivers stream/start messages
	StreamStarts chan protocol.StreamStart

	sent     atomic.Int64
	received atomic.Int64
	dropped  atomic.Int64

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Stats summarizes link traffic
type Stats struct {
	Sent     int64 // recorded chunks sent
	Received int64 // playout chunks received
	Dropped  int64 // chunks lost to full queues or codec errors
	Buffered int   // playout bytes waiting for the device
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.BufferMs <= 0 {
		config.BufferMs = 200
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config:       config,
		sendQ:        make(chan []byte, sendQueueSize),
		Commands:     make(chan protocol.ServerCommand, 10),
		StreamStarts: make(chan protocol.StreamStart, 1),
		ctx:          ctx,
		cancel:       cancel,
	}

	capacity := 0
	if p := config.Playout; p != nil {
		bytesPerMs := p.SampleRate * p.Channels * audio.BytesPerSample / 1000
		capacity = bytesPerMs * config.BufferMs
		c.prebuffer = capacity / 2
	}
	c.ring = NewRingBuffer(capacity)
	return c
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: protocol.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	if rec := c.config.Recording; rec != nil {
		enc, err := encode.New(toFormat(*rec))
		if err != nil {
			c.Close()
			return fmt.Errorf("recording encoder: %w", err)
		}
		c.encoder = enc
	}

	c.wg.Add(2)
	go c.readMessages()
	go c.writeLoop()
	return nil
}

// handshake performs the protocol handshake
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    protocol.Version,
		DeviceInfo: &c.config.DeviceInfo,
		Playout:    c.config.Playout,
		Recording:  c.config.Recording,
	}
	if err := c.sendJSON(protocol.Message{Type: protocol.MsgClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if env.Type != protocol.MsgServerHello {
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}
	var server protocol.ServerHello
	if err := env.Into(&server); err != nil {
		return err
	}

	log.Printf("Handshake complete with server %s (%s)", server.Name, server.ServerID)
	return nil
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.wg.Done()
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

// writeLoop sends queued recording chunks
func (c *Client) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.sendQ:
			c.writeMu.Lock()
			err := c.conn.WriteMessage(websocket.BinaryMessage, frame)
			c.writeMu.Unlock()
			if err != nil {
				log.Printf("Write error: %v", err)
				c.dropped.Add(1)
				continue
			}
			c.sent.Add(1)
		}
	}
}

// handleBinaryMessage decodes playout chunks into the ring buffer
func (c *Client) handleBinaryMessage(data []byte) {
	kind, _, payload, err := protocol.DecodeChunk(data)
	if err != nil || kind != protocol.ChunkPlayout {
		log.Printf("Ignoring binary message: kind=%d err=%v", kind, err)
		return
	}
	c.received.Add(1)

	c.decMu.Lock()
	dec := c.decoder
	c.decMu.Unlock()
	if dec == nil {
		c.dropped.Add(1)
		return
	}

	pcm, err := dec.Decode(payload)
	if err != nil {
		log.Printf("Playout decode error: %v", err)
		c.dropped.Add(1)
		return
	}
	if n := c.ring.Write(pcm); n < len(pcm) {
		c.dropped.Add(1)
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch env.Type {
	case protocol.MsgStreamStart:
		var start protocol.StreamStart
		if err := env.Into(&start); err != nil {
			log.Printf("%v", err)
			return
		}
		c.startStream(start)
		select {
		case c.StreamStarts <- start:
		default:
		}

	case protocol.MsgServerCommand:
		var cmd protocol.ServerCommand
		if err := env.Into(&cmd); err != nil {
			log.Printf("%v", err)
			return
		}
		select {
		case c.Commands <- cmd:
		case <-c.ctx.Done():
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// startStream replaces the playout decoder for a new stream format
func (c *Client) startStream(start protocol.StreamStart) {
	format := audio.Format{
		Codec:      start.Codec,
		SampleRate: start.SampleRate,
		Channels:   start.Channels,
		BitDepth:   start.BitDepth,
	}
	if p := c.config.Playout; p != nil && (p.SampleRate != start.SampleRate || p.Channels != start.Channels) {
		log.Printf("Stream format %s does not match device playout %dHz/%dch", format, p.SampleRate, p.Channels)
	}

	dec, err := decode.New(format)
	if err != nil {
		log.Printf("Cannot decode stream %s: %v", format, err)
		return
	}

	c.decMu.Lock()
	old := c.decoder
	c.decoder = dec
	c.format = start
	c.decMu.Unlock()
	if old != nil {
		old.Close()
	}

	c.ring.Reset()
	c.primed.Store(false)
	log.Printf("Stream started: %s from %s", format, start.Source)
}

// OnData encodes one recorded buffer and queues it for sending. It never
// blocks; a full queue drops the buffer.
func (c *Client) OnData(data []byte, bitsPerSample, sampleRate, channels, frames int) {
	if c.encoder == nil || !c.IsConnected() {
		return
	}

	payload, err := c.encoder.Encode(data)
	if err != nil {
		c.dropped.Add(1)
		return
	}

	frame := protocol.EncodeChunk(protocol.ChunkRecording, time.Now().UnixMicro(), payload)
	select {
	case c.sendQ <- frame:
	default:
		c.dropped.Add(1)
	}
}

// Read serves buffered playout audio. After an underrun it returns nothing
// until half the jitter buffer has refilled.
func (c *Client) Read(p []byte) (int, error) {
	if !c.primed.Load() {
		if c.ring.Available() < c.prebuffer || c.ring.Available() == 0 {
			return 0, nil
		}
		c.primed.Store(true)
	}
	n := c.ring.Read(p)
	if n < len(p) {
		c.primed.Store(false)
	}
	return n, nil
}

// SendState sends a client/state message
func (c *Client) SendState(state protocol.ClientState) error {
	return c.sendJSON(protocol.Message{Type: protocol.MsgClientState, Payload: state})
}

// Stats returns link counters
func (c *Client) Stats() Stats {
	return Stats{
		Sent:     c.sent.Load(),
		Received: c.received.Load(),
		Dropped:  c.dropped.Load(),
		Buffered: c.ring.Available(),
	}
}

// StreamFormat returns the current playout stream format
func (c *Client) StreamFormat() protocol.StreamStart {
	c.decMu.Lock()
	defer c.decMu.Unlock()
	return c.format
}

// Close says goodbye and closes the connection
func (c *Client) Close() {
	if c.IsConnected() {
		_ = c.sendJSON(protocol.Message{
			Type:    protocol.MsgClientGoodbye,
			Payload: protocol.ClientGoodbye{Reason: "shutdown"},
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// Wait blocks until the reader and writer goroutines exit
func (c *Client) Wait() {
	c.wg.Wait()
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func toFormat(f protocol.AudioFormat) audio.Format {
	return audio.Format{Codec: f.Codec, SampleRate: f.SampleRate, Channels: f.Channels, BitDepth: f.BitDepth}
}
