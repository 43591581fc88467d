// ABOUTME: Bubbletea model for the bridge TUI
// ABOUTME: Defines display state, key handling and status updates
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DirectionStatus describes one audio direction
type DirectionStatus struct {
	State      string
	Channels   int
	SampleRate int
	Delay      time.Duration
	Bytes      int64
	Bursts     int64
	Contended  int64
	Dropped    int64
	Warning    bool
	Error      bool
}

// LinkStats describes traffic on the remote link
type LinkStats struct {
	Sent     int64
	Received int64
	Dropped  int64
	Buffered time.Duration
}

// StatusMsg updates TUI state. Nil and empty fields keep their previous value.
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Driver     string
	Playout    *DirectionStatus
	Recording  *DirectionStatus
	Volume     *int
	Muted      *bool
	Link       *LinkStats
}

// Model represents the TUI state
type Model struct {
	// Connection
	connected  bool
	serverName string
	driver     string

	// Directions
	playout   DirectionStatus
	recording DirectionStatus

	// Output level
	volume int
	muted  bool

	// Link
	remote bool
	link   LinkStats

	showDebug bool

	controls *Controls

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderDirection("Playout", m.playout))
	b.WriteString(m.renderDirection("Recording", m.recording))
	b.WriteString(m.renderControls())
	if m.remote {
		b.WriteString(m.renderLink())
	}
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// row pads text into one box line
func row(text string) string {
	return fmt.Sprintf("│ %-52s │\n", truncate(text, 52))
}

// renderHeader renders driver and connection status
func (m Model) renderHeader() string {
	s := "┌─ Audio Bridge ───────────────────────────────────────┐\n"
	s += row("Driver: " + m.driver)
	if m.remote {
		conn := "Disconnected"
		if m.connected {
			conn = "Connected to " + m.serverName
		}
		s += row("Link:   " + conn)
	} else {
		s += row("Link:   local")
	}
	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderDirection renders one direction's lifecycle and pump counters
func (m Model) renderDirection(name string, d DirectionStatus) string {
	state := d.State
	if state == "" {
		state = "uninitialized"
	}
	flags := ""
	if d.Error {
		flags = "  ERROR"
	} else if d.Warning {
		flags = "  warning"
	}

	s := row(fmt.Sprintf("%-10s %s%s", name+":", state, flags))
	if d.SampleRate > 0 {
		s += row(fmt.Sprintf("  %dHz %s, delay %v", d.SampleRate, channelName(d.Channels), d.Delay))
	}
	s += row(fmt.Sprintf("  %s in %d bursts, %d dropped", formatBytes(d.Bytes), d.Bursts, d.Dropped))
	return s
}

// renderControls renders volume status
func (m Model) renderControls() string {
	mute := ""
	if m.muted {
		mute = " (muted)"
	}
	s := "├──────────────────────────────────────────────────────┤\n"
	s += row(fmt.Sprintf("Volume: [%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, mute))
	return s
}

// renderLink renders remote link statistics
func (m Model) renderLink() string {
	return row(fmt.Sprintf("Link:   TX %d  RX %d  dropped %d  buffer %v",
		m.link.Sent, m.link.Received, m.link.Dropped, m.link.Buffered.Round(time.Millisecond)))
}

// renderDebug renders contention counters
func (m Model) renderDebug() string {
	return row(fmt.Sprintf("DEBUG: contended pumps out %d / in %d", m.playout.Contended, m.recording.Contended))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return row("p:Playout r:Record ↑/↓:Vol m:Mute d:Debug q:Quit") +
		"└──────────────────────────────────────────────────────┘\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.send(Action{Kind: ActionQuit})
		return m, tea.Quit
	case "p":
		m.controls.send(Action{Kind: ActionTogglePlayout})
	case "r":
		m.controls.send(Action{Kind: ActionToggleRecording})
	case "up", "+":
		m.volume = clampVolume(m.volume + 5)
		m.controls.send(Action{Kind: ActionVolume, Volume: m.volume})
	case "down", "-":
		m.volume = clampVolume(m.volume - 5)
		m.controls.send(Action{Kind: ActionVolume, Volume: m.volume})
	case "m":
		m.muted = !m.muted
		m.controls.send(Action{Kind: ActionMute, Muted: m.muted})
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Driver != "" {
		m.driver = msg.Driver
	}
	if msg.Playout != nil {
		m.playout = *msg.Playout
	}
	if msg.Recording != nil {
		m.recording = *msg.Recording
	}
	if msg.Volume != nil {
		m.volume = clampVolume(*msg.Volume)
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Link != nil {
		m.link = *msg.Link
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func truncate(s string, length int) string {
	if len([]rune(s)) <= length {
		return s
	}
	return string([]rune(s)[:length-3]) + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
