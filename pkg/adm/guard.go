// ABOUTME: Per-direction mutual exclusion for buffer access
// ABOUTME: Pump calls try without blocking, negotiation waits
package adm

import "sync"

// AccessGuard serializes access to one direction's buffer. It is not
// reentrant.
type AccessGuard struct {
	mu sync.Mutex
}

// TryAcquire takes the guard if it is free. On success the returned
// function releases it.
func (g *AccessGuard) TryAcquire() (release func(), ok bool) {
	if !g.mu.TryLock() {
		return nil, false
	}
	return g.mu.Unlock, true
}

// Acquire blocks until the guard is free and returns its release function.
func (g *AccessGuard) Acquire() (release func()) {
	g.mu.Lock()
	return g.mu.Unlock
}
