package proto

import (
	"encoding/json"
	"time"
)

// Outbound is the envelope for messages going to the server.
type Outbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound is the envelope for messages coming from the server.
type Inbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

const (
	ProtocolVersion = 1

	OutboundTypeHello              = "hello"
	OutboundTypeJoin               = "join"
	OutboundTypeSwitchRoom         = "switch_room"
	OutboundTypeSendMessage        = "send_message"
	OutboundTypeTyping             = "typing"
	OutboundTypeGetPrivateMessages = "get_private_messages"

	InboundTypeMessage               = "message"
	InboundTypeMessageHistory        = "message_history"
	InboundTypePrivateMessageHistory = "private_message_history"
	InboundTypeUsersList             = "users_list"
	InboundTypeRoomsList             = "rooms_list"
	InboundTypeTypingUpdate          = "typing_update"
	InboundTypeError                 = "error"
)

// HelloData introduces the client on a fresh connection.
type HelloData struct {
	ClientID string `json:"clientId"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData establishes the session and requests initial room state.
type JoinData struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// SwitchRoomData requests history and roster for a different room.
type SwitchRoomData struct {
	Room string `json:"room"`
}

// SendMessageData carries a chat message, room or private.
type SendMessageData struct {
	Content      string `json:"content"`
	Room         string `json:"room"`
	IsPrivate    bool   `json:"isPrivate"`
	TargetUserID string `json:"targetUserId,omitempty"`
}

// TypingData toggles the local user's typing flag in a room.
type TypingData struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"isTyping"`
}

// GetPrivateMessagesData requests history for one private thread.
type GetPrivateMessagesData struct {
	TargetUserID string `json:"targetUserId"`
}

// Sender identifies the author of a message.
type Sender struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Message is the wire shape of a chat message.
// Sender is nil for system messages.
type Message struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Content      string    `json:"content"`
	Sender       *Sender   `json:"sender,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Room         string    `json:"room"`
	IsPrivate    bool      `json:"isPrivate,omitempty"`
	TargetUserID string    `json:"targetUserId,omitempty"`
}

// User is the wire shape of a roster entry.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Room     string    `json:"room"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

// Room is the wire shape of a room directory entry.
type Room struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Users []string `json:"users,omitempty"`
}

// PrivateMessageHistoryData replaces one private thread wholesale.
type PrivateMessageHistoryData struct {
	TargetUserID string    `json:"targetUserId"`
	Messages     []Message `json:"messages"`
}

// TypingUpdateData replaces the typing set wholesale.
type TypingUpdateData struct {
	TypingUsers []string `json:"typingUsers"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
