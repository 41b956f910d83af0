package core

import "time"

// MessageKind classifies a chat message.
type MessageKind string

const (
	MessageKindUser    MessageKind = "user"
	MessageKindSystem  MessageKind = "system"
	MessageKindPrivate MessageKind = "private"
)

// Sender identifies the author of a message. System messages have none.
type Sender struct {
	ID       string
	Username string
}

// Message is the domain model for a chat message.
type Message struct {
	ID           string
	Kind         MessageKind
	Content      string
	Sender       *Sender
	Timestamp    time.Time
	Room         string
	IsPrivate    bool
	TargetUserID string
}

// ThreadKey returns the private-thread bucket for msg from the point of view
// of the local user selfID: the other participant's id. For a message the
// local user sent this is the target; for a received one it is the sender.
func (m Message) ThreadKey(selfID string) string {
	if m.Sender != nil && m.Sender.ID == selfID {
		return m.TargetUserID
	}
	if m.Sender != nil {
		return m.Sender.ID
	}
	return m.TargetUserID
}
