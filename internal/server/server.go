// ABOUTME: Peer server for audio bridges
// ABOUTME: Manages WebSocket connections, client state, and audio streaming
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/audiobridge/internal/discovery"
	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/decode"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RecordingFunc receives decoded 16-bit PCM recorded by a client
type RecordingFunc func(clientID string, format protocol.AudioFormat, pcm []byte)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	UseTUI     bool
	// Source is streamed to every playout client (MP3, FLAC or URL). Empty = test tone
	Source string
	// Echo returns each client's recording on its own playout stream
	Echo bool
	// OnRecording is called from the connection's read loop
	OnRecording RecordingFunc
}

// Server accepts bridge connections on protocol.Path
type Server struct {
	config   Config
	serverID string

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Server clock (monotonic microseconds)
	clockStart time.Time

	// Audio streaming
	audioEngine *AudioEngine

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui *ServerTUI

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	listening  atomic.Bool
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected bridge
type Client struct {
	ID         string
	Name       string
	Conn       *websocket.Conn
	DeviceInfo *protocol.DeviceInfo
	Playout    *protocol.AudioFormat
	Recording  *protocol.AudioFormat

	// State last reported by the bridge
	State protocol.ClientState

	decoder decode.Decoder
	echo    *echoSource

	chunksSent     atomic.Int64
	chunksReceived atomic.Int64
	bytesRecorded  atomic.Int64

	// Output channel for messages
	sendChan chan interface{}

	mu sync.RWMutex
}

// ClientInfo is a snapshot of one client for display
type ClientInfo struct {
	Name           string
	ID             string
	Playout        string
	Recording      string
	State          protocol.ClientState
	ChunksSent     int64
	ChunksReceived int64
	BytesRecorded  int64
}

// New creates a new server instance
func New(config Config) *Server {
	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Bridges are not browsers; only local pages may connect from one.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if origin == "http://localhost" || origin == "http://127.0.0.1" {
					return true
				}
				log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				return true
			},
		},
		clients:    make(map[string]*Client),
		clockStart: time.Now(),
		stopChan:   make(chan struct{}),
	}
	s.audioEngine = NewAudioEngine(s)
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the bridge endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartStreaming runs the audio engine without an HTTP listener, for
// callers that serve Handler themselves. Stop ends it.
func (s *Server) StartStreaming() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.audioEngine.Start()
	}()
}

// Start serves until Stop, a TUI quit, or a listener error
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.config.Name, s.config.Port); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
		go s.refreshTUI()
	}

	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.StartStreaming()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, protocol.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	s.listening.Store(true)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// shutdown rejects new connections and stops background work
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	already := s.isShutdown
	s.isShutdown = true
	s.shutdownMu.Unlock()
	if already {
		return
	}

	if s.tui != nil {
		s.tui.Stop()
	}
	s.audioEngine.Stop()
	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	s.clientsMu.RLock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clientsMu.RUnlock()
}

// Stop stops the server. Servers driven by StartStreaming are shut down
// here; Start does its own shutdown once stopChan closes.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if !s.listening.Load() {
			s.shutdown()
			s.wg.Wait()
		}
	})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	if s.config.Debug {
		log.Printf("[DEBUG] New connection, waiting for handshake")
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	hello, err := parseHello(data)
	if err != nil {
		log.Printf("Rejecting client: %v", err)
		return
	}

	log.Printf("Client hello: %s (ID: %s, playout: %v, recording: %v)",
		hello.Name, hello.ClientID, hello.Playout != nil, hello.Recording != nil)

	client := &Client{
		ID:         hello.ClientID,
		Name:       hello.Name,
		Conn:       conn,
		DeviceInfo: hello.DeviceInfo,
		Playout:    hello.Playout,
		Recording:  hello.Recording,
		State:      protocol.ClientState{Volume: 100},
		sendChan:   make(chan interface{}, 100),
	}

	if rec := client.Recording; rec != nil {
		dec, err := decode.New(toFormat(*rec))
		if err != nil {
			log.Printf("Client %s recording format rejected: %v", client.Name, err)
			client.Recording = nil
		} else {
			client.decoder = dec
			defer dec.Close()
		}
	}

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)

		errorMsg := protocol.Message{
			Type: "server/error",
			Payload: map[string]string{
				"error":   "duplicate_client_id",
				"message": "Client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.updateTUI()

	writerDone := make(chan struct{})
	defer func() {
		s.audioEngine.RemoveClient(client)

		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		<-writerDone
		log.Printf("Client disconnected: %s", client.Name)

		s.updateTUI()
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	}
	if err := s.sendMessage(client, protocol.MsgServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		close(writerDone)
		return
	}

	go func() {
		defer close(writerDone)
		s.clientWriter(client)
	}()

	if client.Playout != nil {
		if err := s.audioEngine.AddClient(client); err != nil {
			log.Printf("Client %s playout disabled: %v", client.Name, err)
		}
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			s.handleRecording(client, data)
		case websocket.TextMessage:
			if s.handleClientMessage(client, data) {
				return
			}
		}
	}
}

// parseHello validates the first message of a connection
func parseHello(data []byte) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	env, err := protocol.Decode(data)
	if err != nil {
		return hello, err
	}
	if env.Type != protocol.MsgClientHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.MsgClientHello, env.Type)
	}
	if err := env.Into(&hello); err != nil {
		return hello, err
	}
	if hello.ClientID == "" {
		return hello, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		hello.Name = hello.ClientID
	}
	return hello, nil
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					client.Conn.Close()
					drain(client.sendChan)
					return
				}
				client.chunksSent.Add(1)
			default:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteJSON(v); err != nil {
					log.Printf("Error writing text message: %v", err)
					client.Conn.Close()
					drain(client.sendChan)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				client.Conn.Close()
				drain(client.sendChan)
				return
			}
		}
	}
}

// drain discards messages until the channel is closed
func drain(ch chan interface{}) {
	for range ch {
	}
}

// handleRecording decodes a recording chunk from a client
func (s *Server) handleRecording(client *Client, data []byte) {
	kind, _, payload, err := protocol.DecodeChunk(data)
	if err != nil || kind != protocol.ChunkRecording {
		log.Printf("Ignoring binary message from %s: kind=%d err=%v", client.Name, kind, err)
		return
	}
	if client.decoder == nil {
		return
	}
	client.chunksReceived.Add(1)

	pcm, err := client.decoder.Decode(payload)
	if err != nil {
		log.Printf("Recording decode error from %s: %v", client.Name, err)
		return
	}
	client.bytesRecorded.Add(int64(len(pcm)))

	if client.echo != nil {
		client.echo.Write(pcm)
	}
	if s.config.OnRecording != nil {
		s.config.OnRecording(client.ID, *client.Recording, pcm)
	}
}

// handleClientMessage processes text messages; it reports whether the
// client said goodbye.
func (s *Server) handleClientMessage(client *Client, data []byte) bool {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Error parsing message: %v", err)
		return false
	}

	switch env.Type {
	case protocol.MsgClientState:
		var state protocol.ClientState
		if err := env.Into(&state); err != nil {
			log.Printf("%v", err)
			return false
		}
		client.mu.Lock()
		client.State = state
		client.mu.Unlock()

		if s.config.Debug {
			log.Printf("[DEBUG] Client %s state: %+v", client.Name, state)
		}
		s.updateTUI()

	case protocol.MsgClientGoodbye:
		var bye protocol.ClientGoodbye
		_ = env.Into(&bye)
		log.Printf("Client %s said goodbye: %s", client.Name, bye.Reason)
		return true

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
	return false
}

// SendCommand sends a server/command to one client
func (s *Server) SendCommand(clientID string, cmd protocol.ServerCommand) error {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		return fmt.Errorf("unknown client: %s", clientID)
	}
	return s.sendMessage(client, protocol.MsgServerCommand, cmd)
}

// Clients returns a snapshot of connected clients sorted by name
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	infos := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		client.mu.RLock()
		state := client.State
		client.mu.RUnlock()

		infos = append(infos, ClientInfo{
			Name:           client.Name,
			ID:             client.ID,
			Playout:        describe(client.Playout),
			Recording:      describe(client.Recording),
			State:          state,
			ChunksSent:     client.chunksSent.Load(),
			ChunksReceived: client.chunksReceived.Load(),
			BytesRecorded:  client.bytesRecorded.Load(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues a binary frame for a client
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// getClockMicros returns the server clock in microseconds
func (s *Server) getClockMicros() int64 {
	return time.Since(s.clockStart).Microseconds()
}

func toFormat(f protocol.AudioFormat) audio.Format {
	return audio.Format{Codec: f.Codec, SampleRate: f.SampleRate, Channels: f.Channels, BitDepth: f.BitDepth}
}

func describe(f *protocol.AudioFormat) string {
	if f == nil {
		return "-"
	}
	return toFormat(*f).String()
}
