// ABOUTME: Atomic warning and error flags per direction
// ABOUTME: Drivers embed StatusFlags to satisfy StatusReporter
package adm

import "sync/atomic"

// StatusFlags is a ready-made StatusReporter. The zero value has no flags
// raised. Set from any goroutine.
type StatusFlags struct {
	warning [2]atomic.Bool
	err     [2]atomic.Bool
}

// SetWarning raises the warning flag for d.
func (f *StatusFlags) SetWarning(d Direction) {
	if d.Valid() {
		f.warning[d].Store(true)
	}
}

// SetError raises the error flag for d.
func (f *StatusFlags) SetError(d Direction) {
	if d.Valid() {
		f.err[d].Store(true)
	}
}

func (f *StatusFlags) Warning(d Direction) bool {
	return d.Valid() && f.warning[d].Load()
}

func (f *StatusFlags) Error(d Direction) bool {
	return d.Valid() && f.err[d].Load()
}

func (f *StatusFlags) ClearWarning(d Direction) {
	if d.Valid() {
		f.warning[d].Store(false)
	}
}

func (f *StatusFlags) ClearError(d Direction) {
	if d.Valid() {
		f.err[d].Store(false)
	}
}
