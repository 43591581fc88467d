// ABOUTME: Hardware-facing drivers that implement adm.Device
// ABOUTME: Device callbacks pump audio through an attached session
// Package driver connects real and virtual audio devices to an adm.Session.
//
// Supported backends:
//   - malgo: miniaudio playback and capture (default)
//   - oto: playback only, pulls from the session through an io.Reader
//   - portaudio: playback and capture, requires -tags portaudio
//   - virtual: ticker-driven software device for headless use and tests
//
// Every driver pumps from its own callback thread. A pump call that fails
// (contention, no buffer yet) drops the burst, plays silence for playout,
// and raises the direction's warning flag.
//
// Example:
//
//	drv, err := driver.New("malgo", driver.Config{SampleRate: 48000, PlayoutChannels: 2, RecordingChannels: 1})
//	sess := adm.NewSession(adm.Compose(drv, eng))
//	drv.Attach(sess)
package driver
