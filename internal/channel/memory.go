package channel

import (
	"context"
	"sync"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Emitted records one outbound event captured by the memory channel.
type Emitted struct {
	Event   string
	Payload any
}

// Memory is an in-process implementation of core.Channel for tests and
// local experiments: emitted events are recorded instead of sent, and the
// server side is scripted by injecting inbound events.
type Memory struct {
	selfID string

	mu        sync.Mutex
	connected bool
	emitted   []Emitted

	events chan core.Event
}

// NewMemory builds a connected memory channel with the given local identity.
func NewMemory(selfID string) *Memory {
	return &Memory{
		selfID:    selfID,
		connected: true,
		events:    make(chan core.Event, 64),
	}
}

// SelfID returns the configured local identity.
func (m *Memory) SelfID() string {
	return m.selfID
}

// Events yields injected events.
func (m *Memory) Events() <-chan core.Event {
	return m.events
}

// Emit records the event, or fails like a dropped transport when offline.
func (m *Memory) Emit(_ context.Context, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	m.emitted = append(m.emitted, Emitted{Event: event, Payload: payload})
	return nil
}

// Deliver injects one inbound event as if the server sent it.
func (m *Memory) Deliver(ev core.Event) {
	m.events <- ev
}

// SetConnected flips the transport state and delivers the matching
// connectivity transition.
func (m *Memory) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
	m.events <- core.Event{Kind: core.EventConnectivity, Connected: connected}
}

// Emitted returns a copy of everything emitted so far.
func (m *Memory) Emitted() []Emitted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Emitted(nil), m.emitted...)
}

// Reset clears the emitted record.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitted = nil
}

// Close closes the event stream.
func (m *Memory) Close() error {
	close(m.events)
	return nil
}
