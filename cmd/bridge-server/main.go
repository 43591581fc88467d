// ABOUTME: Entry point for the audio bridge peer server
// ABOUTME: Streams a source to linked bridges and stores what they record
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/Resonate-Protocol/audiobridge/internal/config"
	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
	"github.com/Resonate-Protocol/audiobridge/internal/server"
)

var (
	configFile = flag.String("config", "", "YAML config file (flags override it)")
	port       = flag.Int("port", 8927, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-audiobridge-server)")
	logFile    = flag.String("log-file", "audiobridge-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	audioFile  = flag.String("audio", "", "Audio file or URL to stream (MP3, FLAC). If not specified, plays test tone")
	echo       = flag.Bool("echo", false, "Play each bridge's recording back to it")
	recordDir  = flag.String("record-dir", "", "Store each bridge's recording as raw PCM in this directory")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg = loaded
	}
	applyFlags(cfg)
	if err := cfg.Server.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	serverName := cfg.Server.Name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-audiobridge-server", hostname)
	}

	log.Printf("Starting Audio Bridge Server: %s on port %d", serverName, cfg.Server.Port)
	if cfg.Logging.Debug {
		log.Printf("Debug logging enabled")
	}

	var rec *recorder
	if cfg.Server.RecordDir != "" {
		if err := os.MkdirAll(cfg.Server.RecordDir, 0755); err != nil {
			log.Fatalf("Failed to create record dir: %v", err)
		}
		rec = newRecorder(cfg.Server.RecordDir)
		defer rec.Close()
		log.Printf("Recording to: %s", cfg.Server.RecordDir)
	}

	srvConfig := server.Config{
		Port:       cfg.Server.Port,
		Name:       serverName,
		EnableMDNS: cfg.Server.MDNS,
		Debug:      cfg.Logging.Debug,
		UseTUI:     useTUI,
		Source:     cfg.Server.Source,
		Echo:       cfg.Server.Echo,
	}
	if rec != nil {
		srvConfig.OnRecording = rec.Write
	}

	srv := server.New(srvConfig)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}

func applyFlags(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Server.Port = *port
		case "name":
			cfg.Server.Name = *name
		case "debug":
			cfg.Logging.Debug = *debug
		case "no-mdns":
			cfg.Server.MDNS = !*noMDNS
		case "audio":
			cfg.Server.Source = *audioFile
		case "echo":
			cfg.Server.Echo = *echo
		case "record-dir":
			cfg.Server.RecordDir = *recordDir
		}
	})
}

// recorder appends each client's recording to its own file
type recorder struct {
	dir   string
	mu    sync.Mutex
	files map[string]*os.File
}

func newRecorder(dir string) *recorder {
	return &recorder{dir: dir, files: make(map[string]*os.File)}
}

// Write matches server.RecordingFunc
func (r *recorder) Write(clientID string, format protocol.AudioFormat, pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.files == nil {
		return
	}

	f, ok := r.files[clientID]
	if !ok {
		path := filepath.Join(r.dir, recordingName(clientID, format))
		var err error
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Printf("Cannot open recording %s: %v", path, err)
			return
		}
		log.Printf("Recording %s to %s", clientID, path)
		r.files[clientID] = f
	}

	if _, err := f.Write(pcm); err != nil {
		log.Printf("Recording write for %s failed: %v", clientID, err)
	}
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, f := range r.files {
		if err := f.Close(); err != nil {
			log.Printf("Closing recording for %s: %v", id, err)
		}
	}
	r.files = nil
}

func recordingName(clientID string, format protocol.AudioFormat) string {
	return fmt.Sprintf("%s-%dhz-%dch-s16le.pcm", clientID, format.SampleRate, format.Channels)
}
