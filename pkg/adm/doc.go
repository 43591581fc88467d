// ABOUTME: Package adm coordinates an audio device with a buffer-owning engine
// ABOUTME: Provides the lifecycle state machine, buffer negotiation and the pump
// Package adm implements the device-side half of an audio bridge.
//
// A Session sits between a hardware-facing Device, which moves audio on its
// own callback threads, and an Engine, which owns one fixed-size buffer per
// direction. The Session tracks per-direction lifecycle state, asks the
// engine for a buffer sized for the device's sample rate whenever a
// direction is initialized, and pumps bytes between device callbacks and
// that buffer in bursts, notifying the engine each time a buffer fills
// (recording) or drains (playout).
//
// Basic usage:
//
//	sess := adm.NewSession(adm.Compose(device, engine))
//	if err := sess.Init(); err != nil {
//		return err
//	}
//	if err := sess.InitPlayout(); err != nil {
//		return err
//	}
//	if err := sess.StartPlayout(); err != nil {
//		return err
//	}
//
//	// from the device's playback callback:
//	err := sess.GetPlayoutData(out, 0, len(out))
//
// Pump calls never block: when another thread is already pumping the same
// direction they fail with ErrConcurrentAccess and the caller decides
// whether to drop or zero-fill the burst.
//
// Engine callbacks (ConfigureRate, DataRecorded, NeedPlayoutData) run while
// the session holds the direction's buffer guard, so they must not call
// back into the Session.
package adm
