// ABOUTME: High-level audio bridge library API
// ABOUTME: Wires a driver, the engine and a device session together
// Package bridge is the main entry point for library users. A Bridge owns
// one audio device session: it opens the named driver, lets the engine
// size the 10ms buffers, and moves playout audio from an io.Reader to the
// device and recorded audio from the device to a Sink.
//
// For lower-level control, see the adm, engine and driver packages.
//
// Example:
//
//	b, err := bridge.New(bridge.Config{
//	    Driver:     "malgo",
//	    SampleRate: 48000,
//	    Playout:    true,
//	    Source:     tone,
//	})
//	err = b.Start()
//	defer b.Close()
package bridge
