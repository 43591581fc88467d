// ABOUTME: Capability set a session needs from its device and engine
// ABOUTME: Device moves audio on hardware threads, Engine owns the buffers
package adm

import "time"

// Device is the hardware-facing half of a backend. Hooks are called with
// the session's state lock held; they must not call back into the session.
type Device interface {
	// OnInit performs global device setup.
	OnInit() error
	// OnTerminate releases global device resources.
	OnTerminate()

	// OnInitPlayout prepares playout and reports whether it succeeded.
	OnInitPlayout() bool
	// OnInitRecording prepares recording and reports whether it succeeded.
	OnInitRecording() bool

	OnStartPlayout()
	OnStopPlayout()
	OnStartRecording()
	OnStopRecording()

	// StereoAvailable reports whether the device runs d with two channels.
	StereoAvailable(d Direction) bool
	// SampleRate is the rate, in Hz, the device runs d at.
	SampleRate(d Direction) int
}

// Engine owns the per-direction buffers and consumes or produces the audio
// that flows through them. Its methods run while the session holds the
// direction's AccessGuard.
type Engine interface {
	// Channels returns the engine's channel count for d.
	Channels(d Direction) int
	// ConfigureRate sizes the buffer for d at rate and returns it. A nil
	// return is a contract violation.
	ConfigureRate(d Direction, rate int) *Buffer
	// DataRecorded is called each time the recording buffer is full.
	DataRecorded()
	// NeedPlayoutData is called each time the playout buffer is exhausted;
	// the engine must fill the whole buffer before returning.
	NeedPlayoutData()
}

// Backend is the full capability set a Session drives.
type Backend interface {
	Device
	Engine
}

// Compose joins a device and an engine into a Backend.
func Compose(dev Device, eng Engine) Backend {
	return composite{dev, eng}
}

type composite struct {
	Device
	Engine
}

// Pump is the data path a device callback uses. Session implements it.
type Pump interface {
	DataIsRecorded(src []byte, offset, length int) error
	GetPlayoutData(dst []byte, offset, length int) error
}

// DelayReporter is implemented by devices that can estimate their latency.
type DelayReporter interface {
	Delay(d Direction) time.Duration
}

// StatusReporter is implemented by devices that surface runtime trouble.
type StatusReporter interface {
	Warning(d Direction) bool
	Error(d Direction) bool
	ClearWarning(d Direction)
	ClearError(d Direction)
}
