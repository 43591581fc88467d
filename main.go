// ABOUTME: Entry point for the audio bridge
// ABOUTME: Parses config and flags, wires device, endpoints, metrics and TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/audiobridge/internal/client"
	"github.com/Resonate-Protocol/audiobridge/internal/config"
	"github.com/Resonate-Protocol/audiobridge/internal/discovery"
	"github.com/Resonate-Protocol/audiobridge/internal/metrics"
	"github.com/Resonate-Protocol/audiobridge/internal/protocol"
	"github.com/Resonate-Protocol/audiobridge/internal/ui"
	"github.com/Resonate-Protocol/audiobridge/internal/version"
	"github.com/Resonate-Protocol/audiobridge/pkg/adm"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/driver"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/encode"
	"github.com/Resonate-Protocol/audiobridge/pkg/audio/source"
	"github.com/Resonate-Protocol/audiobridge/pkg/bridge"
	"github.com/Resonate-Protocol/audiobridge/pkg/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

var (
	configFile  = flag.String("config", "", "YAML config file (flags override it)")
	driverName  = flag.String("driver", "malgo", "Audio driver: malgo, oto, portaudio, virtual")
	deviceIndex = flag.Int("device", -1, "Device index from -list-devices (-1 = default)")
	listDevices = flag.Bool("list-devices", false, "List audio devices and exit")
	sampleRate  = flag.Int("rate", 48000, "Device sample rate in Hz")
	stereoOut   = flag.Bool("stereo-out", true, "Stereo playout")
	stereoIn    = flag.Bool("stereo-in", false, "Stereo recording")
	noPlayout   = flag.Bool("no-playout", false, "Do not start playout")
	noRecord    = flag.Bool("no-record", false, "Do not start recording")
	volume      = flag.Int("volume", 100, "Initial playout volume (0-100)")
	sourcePath  = flag.String("source", "", "Local file or URL to play (default: 440Hz tone)")
	recordFile  = flag.String("record-file", "", "Write recorded 16-bit PCM to this file")
	remote      = flag.Bool("remote", false, "Link to a peer server instead of local endpoints")
	serverAddr  = flag.String("server", "", "Peer server address host:port (skip mDNS)")
	name        = flag.String("name", "", "Bridge friendly name (default: hostname-audiobridge)")
	codec       = flag.String("codec", "pcm", "Link codec: pcm or opus")
	bufferMs    = flag.Int("buffer-ms", 200, "Link jitter buffer in milliseconds")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	logFile     = flag.String("log-file", "audiobridge.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(cfg.Logging.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if *listDevices {
		printDevices()
		return
	}

	bridgeName := defaultName(cfg.Remote.Name)
	log.Printf("Starting %s: %s", version.String(), bridgeName)

	dev := cfg.Device
	playoutChannels := channels(dev.PlayoutStereo)
	recordingChannels := channels(dev.RecordingStereo)

	// Endpoints
	var (
		src  io.Reader
		sink engine.Sink = engine.Discard
		link *client.Client
	)

	if cfg.Remote.Enabled {
		link, err = connectRemote(cfg, bridgeName, playoutChannels, recordingChannels)
		if err != nil {
			log.Fatalf("Remote link failed: %v", err)
		}
		defer link.Close()
		src, sink = link, link
	} else {
		if dev.Playout {
			s, err := source.OpenAdapted(cfg.Local.Source, dev.SampleRate, playoutChannels)
			if err != nil {
				log.Fatalf("Failed to open source: %v", err)
			}
			defer s.Close()
			log.Printf("Playing %s", s.Name())
			src = s
		}
		if cfg.Local.RecordFile != "" {
			rf, err := os.Create(cfg.Local.RecordFile)
			if err != nil {
				log.Fatalf("Failed to create record file: %v", err)
			}
			defer rf.Close()
			log.Printf("Recording %dHz/%dch 16-bit PCM to %s", dev.SampleRate, recordingChannels, cfg.Local.RecordFile)
			sink = engine.NewWriterSink(rf)
		}
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	if useTUI {
		controls = ui.NewControls()
		tuiProg = ui.Run(ui.Options{Driver: dev.Driver, Remote: link != nil, Volume: dev.Volume}, controls)
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	b, err := bridge.New(bridge.Config{
		Driver:          dev.Driver,
		SampleRate:      dev.SampleRate,
		PlayoutStereo:   dev.PlayoutStereo,
		RecordingStereo: dev.RecordingStereo,
		Playout:         dev.Playout,
		Recording:       dev.Recording,
		DeviceIndex:     dev.DeviceIndex,
		Source:          src,
		Sink:            sink,
		Volume:          bridge.Volume(dev.Volume),
		Period:          dev.Period(),
		OnError: func(err error) {
			log.Printf("Bridge error: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create bridge: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bridge: %v", err)
	}

	if cfg.Metrics.Enabled {
		var linkStats func() metrics.LinkStats
		if link != nil {
			linkStats = func() metrics.LinkStats {
				s := link.Stats()
				return metrics.LinkStats{Sent: s.Sent, Received: s.Received, Dropped: s.Dropped, Buffered: s.Buffered}
			}
		}
		go metrics.New(b, linkStats).Serve(cfg.Metrics.Address)
	}

	if link != nil {
		go handleCommands(b, link)
		go stateReportLoop(b, link)
	}

	if tuiProg != nil {
		go statsUpdateLoop(b, link, cfg, tuiProg)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var linkDone <-chan struct{}
	if link != nil {
		linkDone = link.Done()
	}

	quit := make(chan struct{})
	if controls != nil {
		go handleControls(b, controls, quit)
	}

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case <-linkDone:
		log.Printf("Remote link closed")
	}

	if tuiProg != nil {
		tuiProg.Quit()
	}

	if err := b.Close(); err != nil {
		log.Printf("Error closing bridge: %v", err)
	}

	log.Printf("Bridge stopped")
}

// loadConfig starts from the config file (or defaults) and applies every
// flag the user set explicitly.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "driver":
			cfg.Device.Driver = *driverName
		case "device":
			cfg.Device.DeviceIndex = *deviceIndex
		case "rate":
			cfg.Device.SampleRate = *sampleRate
		case "stereo-out":
			cfg.Device.PlayoutStereo = *stereoOut
		case "stereo-in":
			cfg.Device.RecordingStereo = *stereoIn
		case "no-playout":
			cfg.Device.Playout = !*noPlayout
		case "no-record":
			cfg.Device.Recording = !*noRecord
		case "volume":
			cfg.Device.Volume = *volume
		case "source":
			cfg.Local.Source = *sourcePath
		case "record-file":
			cfg.Local.RecordFile = *recordFile
		case "remote":
			cfg.Remote.Enabled = *remote
		case "server":
			cfg.Remote.Server = *serverAddr
			cfg.Remote.Enabled = true
		case "name":
			cfg.Remote.Name = *name
		case "codec":
			cfg.Remote.Codec = *codec
		case "buffer-ms":
			cfg.Remote.BufferMs = *bufferMs
		case "metrics":
			cfg.Metrics.Enabled = *metricsAddr != ""
			cfg.Metrics.Address = *metricsAddr
		case "log-file":
			cfg.Logging.File = *logFile
		}
	})

	// oto is playout only
	if cfg.Device.Driver == "oto" {
		cfg.Device.Recording = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connectRemote finds the peer and opens the link with one format per
// enabled direction.
func connectRemote(cfg *config.Config, bridgeName string, playoutChannels, recordingChannels int) (*client.Client, error) {
	addr := cfg.Remote.Server
	if addr == "" {
		log.Printf("Starting server discovery...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.DiscoveryTimeoutDuration())
		defer cancel()

		server, err := discovery.Discover(ctx)
		if err != nil {
			return nil, err
		}
		addr = server.Addr()
		log.Printf("Discovered server %s at %s", server.Name, addr)
		cfg.Remote.Server = addr
	}

	linkCodec := cfg.Remote.Codec
	if linkCodec == "opus" && !encode.SupportedOpusRate(cfg.Device.SampleRate) {
		log.Printf("Opus does not support %dHz, using pcm", cfg.Device.SampleRate)
		linkCodec = "pcm"
	}
	format := func(ch int) *protocol.AudioFormat {
		return &protocol.AudioFormat{
			Codec:      linkCodec,
			SampleRate: cfg.Device.SampleRate,
			Channels:   ch,
			BitDepth:   audio.BitsPerSample,
		}
	}

	linkConfig := client.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       bridgeName,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
			Driver:          cfg.Device.Driver,
		},
		BufferMs: cfg.Remote.BufferMs,
	}
	if cfg.Device.Playout {
		linkConfig.Playout = format(playoutChannels)
	}
	if cfg.Device.Recording {
		linkConfig.Recording = format(recordingChannels)
	}

	link := client.NewClient(linkConfig)
	if err := link.Connect(); err != nil {
		return nil, err
	}
	log.Printf("Connected to server: %s", addr)
	return link, nil
}

// handleCommands applies server commands to the bridge
func handleCommands(b *bridge.Bridge, link *client.Client) {
	for {
		select {
		case cmd := <-link.Commands:
			log.Printf("Server command: %s", cmd.Command)
			switch cmd.Command {
			case "volume":
				b.SetVolume(cmd.Volume)
			case "mute":
				b.SetMuted(cmd.Mute)
			case "restart_playout":
				logIf(b.Restart(adm.Playout))
			case "restart_recording":
				logIf(b.Restart(adm.Recording))
			default:
				log.Printf("Unknown server command: %s", cmd.Command)
			}
			sendState(b, link)
		case <-link.Done():
			return
		}
	}
}

// stateReportLoop keeps the server's view of the device current
func stateReportLoop(b *bridge.Bridge, link *client.Client) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sendState(b, link)
		case <-link.Done():
			return
		}
	}
}

func sendState(b *bridge.Bridge, link *client.Client) {
	st := b.Status()
	err := link.SendState(protocol.ClientState{
		Playing:          st.Playout.Active,
		Recording:        st.Recording.Active,
		PlayoutWarning:   st.Playout.Warning,
		RecordingWarning: st.Recording.Warning,
		PlayoutError:     st.Playout.Error,
		RecordingError:   st.Recording.Error,
		Volume:           st.Volume,
		Muted:            st.Muted,
	})
	if err != nil {
		log.Printf("Failed to send state: %v", err)
	}
}

// handleControls processes key actions from the TUI
func handleControls(b *bridge.Bridge, controls *ui.Controls, quit chan<- struct{}) {
	for action := range controls.Actions {
		switch action.Kind {
		case ui.ActionQuit:
			close(quit)
			return
		case ui.ActionTogglePlayout:
			logIf(b.Toggle(adm.Playout))
		case ui.ActionToggleRecording:
			logIf(b.Toggle(adm.Recording))
		case ui.ActionVolume:
			b.SetVolume(action.Volume)
		case ui.ActionMute:
			b.SetMuted(action.Muted)
		}
	}
}

// statsUpdateLoop periodically pushes bridge status to the TUI
func statsUpdateLoop(b *bridge.Bridge, link *client.Client, cfg *config.Config, prog *tea.Program) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		st := b.Status()
		playout := toUI(st.Playout)
		recording := toUI(st.Recording)
		msg := ui.StatusMsg{
			Driver:    st.Driver,
			Playout:   &playout,
			Recording: &recording,
			Volume:    &st.Volume,
			Muted:     &st.Muted,
		}

		if link != nil {
			connected := link.IsConnected()
			ls := link.Stats()
			msg.Connected = &connected
			msg.ServerName = cfg.Remote.Server
			msg.Link = &ui.LinkStats{
				Sent:     ls.Sent,
				Received: ls.Received,
				Dropped:  ls.Dropped,
				Buffered: audio.Duration(ls.Buffered, cfg.Device.SampleRate, channels(cfg.Device.PlayoutStereo)),
			}
		}

		prog.Send(msg)
	}
}

func toUI(d bridge.DirectionStatus) ui.DirectionStatus {
	return ui.DirectionStatus{
		State:      d.StateName(),
		Channels:   d.Channels,
		SampleRate: d.SampleRate,
		Delay:      d.Delay,
		Bytes:      d.Pump.Bytes,
		Bursts:     d.Pump.Bursts,
		Contended:  d.Pump.Contended,
		Dropped:    d.Dropped,
		Warning:    d.Warning,
		Error:      d.Error,
	}
}

func printDevices() {
	for _, d := range adm.Directions {
		devices, err := driver.ListDevices(d)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot list %s devices: %v\n", d, err)
			continue
		}
		fmt.Printf("%s devices:\n", d)
		for _, dev := range devices {
			mark := " "
			if dev.Default {
				mark = "*"
			}
			fmt.Printf("  %s %d: %s\n", mark, dev.Index, dev.Name)
		}
	}
}

func logIf(err error) {
	if err != nil {
		log.Printf("Bridge: %v", err)
	}
}

func defaultName(name string) string {
	if name != "" {
		return name
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-audiobridge", hostname)
}

func channels(stereo bool) int {
	if stereo {
		return 2
	}
	return 1
}
