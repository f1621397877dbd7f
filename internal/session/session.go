// Package session tracks whether the chat session is usable.
package session

import (
	"sync/atomic"
	"time"
)

// Health status values reported by State.Status.
const (
	StatusReady        = "ready"
	StatusInitializing = "initializing"
)

// State holds the readiness of the chat session. It starts out not ready
// and flips to ready exactly once; there is no way back.
type State struct {
	ready   atomic.Bool
	readyAt atomic.Int64
}

// NewState creates a State that is not ready.
func NewState() *State {
	return &State{}
}

// MarkReady flips the state to ready. It reports true only for the call
// that performed the transition.
func (s *State) MarkReady() bool {
	if !s.ready.CompareAndSwap(false, true) {
		return false
	}
	s.readyAt.Store(time.Now().UnixNano())
	return true
}

// Ready reports whether the session completed its handshake.
func (s *State) Ready() bool {
	return s.ready.Load()
}

// ReadyAt returns when the session became ready, or the zero time.
func (s *State) ReadyAt() time.Time {
	ns := s.readyAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Status is the health string for the current state.
func (s *State) Status() string {
	if s.Ready() {
		return StatusReady
	}
	return StatusInitializing
}
