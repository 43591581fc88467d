// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and forwards key actions to the bridge
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ActionKind identifies a user request from the TUI
type ActionKind int

const (
	ActionQuit ActionKind = iota
	ActionTogglePlayout
	ActionToggleRecording
	ActionVolume
	ActionMute
)

// Action is a user request; Volume and Muted carry the new values
type Action struct {
	Kind   ActionKind
	Volume int
	Muted  bool
}

// Controls carries actions from the TUI to the application
type Controls struct {
	Actions chan Action
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Actions: make(chan Action, 10),
	}
}

// send delivers an action without blocking the UI
func (c *Controls) send(a Action) {
	if c == nil {
		return
	}
	select {
	case c.Actions <- a:
	default:
	}
}

// Options configures the initial model
type Options struct {
	Driver string
	// Remote shows the link status rows
	Remote bool
	Volume int
}

// NewModel creates a new TUI model
func NewModel(opts Options, controls *Controls) Model {
	return Model{
		driver:   opts.Driver,
		remote:   opts.Remote,
		volume:   clampVolume(opts.Volume),
		controls: controls,
	}
}

// Run creates the TUI program; the caller runs it and feeds it StatusMsg
// values with Send.
func Run(opts Options, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(opts, controls), tea.WithAltScreen())
}
