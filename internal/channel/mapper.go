package channel

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// EventFromInbound validates a server envelope at the channel boundary and
// maps it onto the closed core event type. Unknown envelope types are an
// error so string-keyed dispatch never leaks past the adapter.
func EventFromInbound(in proto.Inbound) (core.Event, error) {
	switch in.Type {
	case proto.InboundTypeMessage:
		var msg proto.Message
		if err := json.Unmarshal(in.Data, &msg); err != nil {
			return core.Event{}, fmt.Errorf("decode message: %w", err)
		}
		return core.Event{Kind: core.EventMessage, Message: messageFromWire(msg)}, nil

	case proto.InboundTypeMessageHistory:
		var history []proto.Message
		if err := json.Unmarshal(in.Data, &history); err != nil {
			return core.Event{}, fmt.Errorf("decode message_history: %w", err)
		}
		return core.Event{Kind: core.EventMessageHistory, Messages: messagesFromWire(history)}, nil

	case proto.InboundTypePrivateMessageHistory:
		var data proto.PrivateMessageHistoryData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return core.Event{}, fmt.Errorf("decode private_message_history: %w", err)
		}
		return core.Event{
			Kind:     core.EventPrivateHistory,
			PeerID:   data.TargetUserID,
			Messages: messagesFromWire(data.Messages),
		}, nil

	case proto.InboundTypeUsersList:
		var users []proto.User
		if err := json.Unmarshal(in.Data, &users); err != nil {
			return core.Event{}, fmt.Errorf("decode users_list: %w", err)
		}
		return core.Event{Kind: core.EventUsersList, Users: usersFromWire(users)}, nil

	case proto.InboundTypeRoomsList:
		var rooms []proto.Room
		if err := json.Unmarshal(in.Data, &rooms); err != nil {
			return core.Event{}, fmt.Errorf("decode rooms_list: %w", err)
		}
		return core.Event{Kind: core.EventRoomsList, Rooms: roomsFromWire(rooms)}, nil

	case proto.InboundTypeTypingUpdate:
		var data proto.TypingUpdateData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return core.Event{}, fmt.Errorf("decode typing_update: %w", err)
		}
		return core.Event{Kind: core.EventTypingUpdate, TypingUsers: data.TypingUsers}, nil

	case proto.InboundTypeError:
		if in.Error == nil {
			return core.Event{}, fmt.Errorf("error envelope without error body")
		}
		return core.Event{
			Kind: core.EventServerError,
			Err:  &core.ServerError{Code: in.Error.Code, Message: in.Error.Msg},
		}, nil
	}

	return core.Event{}, fmt.Errorf("unknown inbound type %q", in.Type)
}

func messageFromWire(m proto.Message) core.Message {
	msg := core.Message{
		ID:           m.ID,
		Kind:         messageKindFromWire(m.Type),
		Content:      m.Content,
		Timestamp:    m.Timestamp,
		Room:         m.Room,
		IsPrivate:    m.IsPrivate,
		TargetUserID: m.TargetUserID,
	}
	if m.Sender != nil {
		msg.Sender = &core.Sender{ID: m.Sender.ID, Username: m.Sender.Username}
	}
	return msg
}

func messageKindFromWire(t string) core.MessageKind {
	switch t {
	case string(core.MessageKindSystem):
		return core.MessageKindSystem
	case string(core.MessageKindPrivate):
		return core.MessageKindPrivate
	default:
		return core.MessageKindUser
	}
}

func messagesFromWire(wire []proto.Message) []core.Message {
	out := make([]core.Message, 0, len(wire))
	for _, m := range wire {
		out = append(out, messageFromWire(m))
	}
	return out
}

func usersFromWire(wire []proto.User) []core.User {
	out := make([]core.User, 0, len(wire))
	for _, u := range wire {
		out = append(out, core.User{
			ID:       u.ID,
			Username: u.Username,
			Room:     u.Room,
			IsOnline: u.IsOnline,
			LastSeen: u.LastSeen,
		})
	}
	return out
}

func roomsFromWire(wire []proto.Room) []core.Room {
	out := make([]core.Room, 0, len(wire))
	for _, r := range wire {
		out = append(out, core.Room{
			ID:      r.ID,
			Name:    r.Name,
			Members: append([]string(nil), r.Users...),
		})
	}
	return out
}
