package core

import "sync"

// Mode is the high-level session mode.
type Mode int

const (
	// ModeDetached is the state before join completes.
	ModeDetached Mode = iota
	// ModeRoom means messages route to the active room.
	ModeRoom
	// ModePrivate means messages route to the open private peer.
	ModePrivate
)

// Session holds the identity of the local user and the active room or
// private-peer context. Mutations happen only on the engine goroutine; the
// lock is for snapshot reads from the outside.
type Session struct {
	mu          sync.RWMutex
	localUser   Sender
	activeRoom  string
	privatePeer string
	joined      bool
}

// NewSession constructs a detached session.
func NewSession() *Session {
	return &Session{}
}

// Join sets the local identity and the initial room.
func (s *Session) Join(local Sender, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localUser = local
	s.activeRoom = room
	s.privatePeer = ""
	s.joined = true
}

// SwitchRoom changes the active room. Only valid in room mode; returns
// false without side effects otherwise.
func (s *Session) SwitchRoom(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joined || s.privatePeer != "" {
		return false
	}
	s.activeRoom = room
	return true
}

// OpenPrivate enters private mode with the given peer. The room context is
// kept so ClosePrivate can return to it.
func (s *Session) OpenPrivate(peerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joined || peerID == "" {
		return false
	}
	s.privatePeer = peerID
	return true
}

// ClosePrivate returns to room mode. Returns false if not in private mode.
func (s *Session) ClosePrivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.privatePeer == "" {
		return false
	}
	s.privatePeer = ""
	return true
}

// Mode reports the current session mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.joined:
		return ModeDetached
	case s.privatePeer != "":
		return ModePrivate
	default:
		return ModeRoom
	}
}

// Joined reports whether the initial join happened.
func (s *Session) Joined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joined
}

// LocalUser returns the local identity set at join.
func (s *Session) LocalUser() Sender {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localUser
}

// ActiveRoom returns the current room context.
func (s *Session) ActiveRoom() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeRoom
}

// PrivatePeer returns the open private peer id, or "" in room mode.
func (s *Session) PrivatePeer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privatePeer
}
