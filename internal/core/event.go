package core

// EventKind tags an inbound event decoded at the channel boundary.
type EventKind int

const (
	// EventConnectivity reports a transport connect or disconnect.
	EventConnectivity EventKind = iota
	// EventMessage delivers a single chat message, possibly private.
	EventMessage
	// EventMessageHistory replaces the room message log wholesale.
	EventMessageHistory
	// EventPrivateHistory replaces one private thread wholesale.
	EventPrivateHistory
	// EventUsersList replaces the roster wholesale.
	EventUsersList
	// EventRoomsList replaces the room directory wholesale.
	EventRoomsList
	// EventTypingUpdate replaces the typing set wholesale.
	EventTypingUpdate
	// EventServerError carries a server-reported domain error.
	EventServerError
)

// Event is the closed variant type the engine consumes. Exactly the fields
// for the tagged Kind are populated.
type Event struct {
	Kind        EventKind
	Connected   bool
	Message     Message
	Messages    []Message
	PeerID      string
	Users       []User
	Rooms       []Room
	TypingUsers []string
	Err         *ServerError
}
