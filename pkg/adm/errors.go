// ABOUTME: Error values returned by session lifecycle and pump operations
// ABOUTME: Sentinels are matched with errors.Is, ConfigError with errors.As
package adm

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports an engine channel count that does not match
	// the device's stereo capability.
	ErrConfiguration = errors.New("adm: channel configuration mismatch")

	// ErrBackendContract reports an engine that did not supply a usable
	// buffer during negotiation.
	ErrBackendContract = errors.New("adm: backend contract violation")

	// ErrConcurrentAccess reports a pump call that found the direction's
	// buffer guard already held.
	ErrConcurrentAccess = errors.New("adm: concurrent buffer access")

	// ErrInvalidRange reports an offset/length pair outside the caller's slice.
	ErrInvalidRange = errors.New("adm: invalid buffer range")

	// ErrNotInitialized reports a start on a direction that was never initialized.
	ErrNotInitialized = errors.New("adm: direction not initialized")

	// ErrAlreadyInitialized reports a second init of the same direction.
	ErrAlreadyInitialized = errors.New("adm: direction already initialized")

	// ErrInitRejected reports a device that refused to initialize a direction.
	ErrInitRejected = errors.New("adm: device rejected direction init")

	// ErrBackendInit reports a device that failed global setup.
	ErrBackendInit = errors.New("adm: device init failed")

	// ErrNoBuffer reports a pump call on a direction without a negotiated buffer.
	ErrNoBuffer = errors.New("adm: no negotiated buffer")

	// ErrClosed reports use of a closed session.
	ErrClosed = errors.New("adm: session closed")
)

// ConfigError describes a channel count the session cannot accept.
type ConfigError struct {
	Direction Direction
	Channels  int
	Expected  int
}

func (e *ConfigError) Error() string {
	if e.Expected == 0 {
		return fmt.Sprintf("adm: unsupported %s channel count %d", e.Direction, e.Channels)
	}
	return fmt.Sprintf("adm: %s has %d channels, device expects %d", e.Direction, e.Channels, e.Expected)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
