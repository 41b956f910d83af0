package core

import "context"

// Channel is the duplex event channel the engine synchronizes over. The
// transport behind it reconnects on its own; the engine only observes
// connectivity transitions on Events.
type Channel interface {
	// Emit sends one event to the server, fire and forget. It fails fast
	// while the transport is down; there is no retry or acknowledgement.
	Emit(ctx context.Context, event string, payload any) error
	// Events yields decoded inbound events in server order.
	Events() <-chan Event
	// SelfID is the local identity on this channel, used to tell the local
	// user's own echoed events apart from peer events.
	SelfID() string
}
