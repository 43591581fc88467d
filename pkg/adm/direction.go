// ABOUTME: Audio flow directions and their lifecycle flags
// ABOUTME: Playout is output to the device, Recording is input from it
package adm

// Direction identifies one of the two independent audio flows.
type Direction int

const (
	// Playout is audio flowing from the engine to the device.
	Playout Direction = iota
	// Recording is audio flowing from the device to the engine.
	Recording
)

// Directions lists both directions in a fixed order.
var Directions = [...]Direction{Playout, Recording}

// Valid reports whether d is Playout or Recording.
func (d Direction) Valid() bool {
	return d == Playout || d == Recording
}

func (d Direction) String() string {
	switch d {
	case Playout:
		return "playout"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

// DirectionState is the lifecycle state of one direction.
// Active implies Initialized.
type DirectionState struct {
	Initialized bool
	Active      bool
}
