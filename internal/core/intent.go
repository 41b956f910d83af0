package core

// IntentKind describes what the user wants to do.
type IntentKind int

const (
	// IntentJoin enters the chat with a username and initial room.
	IntentJoin IntentKind = iota
	// IntentSendMessage sends the composed text to the active context.
	IntentSendMessage
	// IntentSwitchRoom moves the session to a different room.
	IntentSwitchRoom
	// IntentOpenPrivate opens a private thread with a peer.
	IntentOpenPrivate
	// IntentClosePrivate returns from a private thread to the room.
	IntentClosePrivate
	// IntentKeystroke reports local compose activity for typing indication.
	IntentKeystroke
)

// Intent represents an action requested by the user.
type Intent struct {
	Kind     IntentKind
	Username string
	Room     string
	Text     string
	PeerID   string
}
