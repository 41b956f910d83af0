package core

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Notification tells the consumer a new message from a peer arrived, for
// sound or desktop-notification side effects. Delivery is best effort: a
// slow consumer loses notifications, never engine progress.
type Notification struct {
	Message Message
}

// Engine is the client-side synchronization engine. It owns one channel,
// the projection store, the session context and the typing coordinator, and
// runs all reducers and dispatch logic on a single goroutine: inbound
// channel events, user intents and the typing quiet timer are serialized
// through one select loop.
type Engine struct {
	ch      Channel
	store   *Store
	session *Session
	typing  *TypingCoordinator

	intents       chan Intent
	notifications chan Notification

	// set after an observed disconnect so only true reconnects rejoin
	dropped bool

	log *zerolog.Logger
}

// NewEngine constructs an engine over the given channel. The clock drives
// the typing debounce and is injectable for tests.
func NewEngine(ch Channel, clk clock.Clock, typingDebounce time.Duration, logger *zerolog.Logger) *Engine {
	return &Engine{
		ch:            ch,
		store:         NewStore(),
		session:       NewSession(),
		typing:        NewTypingCoordinator(clk, typingDebounce),
		intents:       make(chan Intent, 16),
		notifications: make(chan Notification, 16),
		log:           logger,
	}
}

// Store exposes the projections for read-only consumption.
func (e *Engine) Store() *Store {
	return e.store
}

// Session exposes the session context for read-only consumption.
func (e *Engine) Session() *Session {
	return e.session
}

// Notifications yields new-message notifications for side effects.
func (e *Engine) Notifications() <-chan Notification {
	return e.notifications
}

// Join enters the chat with a username and initial room.
func (e *Engine) Join(username, room string) {
	e.intents <- Intent{Kind: IntentJoin, Username: username, Room: room}
}

// SendMessage sends text to the active room or open private thread.
func (e *Engine) SendMessage(text string) {
	e.intents <- Intent{Kind: IntentSendMessage, Text: text}
}

// SwitchRoom moves the session to another room.
func (e *Engine) SwitchRoom(room string) {
	e.intents <- Intent{Kind: IntentSwitchRoom, Room: room}
}

// OpenPrivate opens a private thread with the given peer.
func (e *Engine) OpenPrivate(peerID string) {
	e.intents <- Intent{Kind: IntentOpenPrivate, PeerID: peerID}
}

// ClosePrivate returns from the open private thread to the room.
func (e *Engine) ClosePrivate() {
	e.intents <- Intent{Kind: IntentClosePrivate}
}

// Keystroke reports local compose activity for the typing indicator.
func (e *Engine) Keystroke() {
	e.intents <- Intent{Kind: IntentKeystroke}
}

// Run processes events, intents and the typing timer until ctx is done or
// the channel's event stream closes.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-e.ch.Events():
			if !ok {
				return nil
			}
			e.handleEvent(ctx, ev)
		case intent := <-e.intents:
			e.handleIntent(ctx, intent)
		case <-e.typing.C():
			if room, ok := e.typing.Expire(); ok {
				e.emit(ctx, proto.OutboundTypeTyping, proto.TypingData{Room: room, IsTyping: false})
			}
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventConnectivity:
		e.store.ApplyConnectivity(ev.Connected)
		if ev.Connected {
			if e.dropped {
				e.dropped = false
				e.rejoin(ctx)
			}
		} else {
			e.dropped = true
			e.log.Warn().Msg("channel disconnected")
		}
	case EventMessage:
		if e.store.ApplyMessage(ev.Message) {
			e.notify(ev.Message)
		}
	case EventMessageHistory:
		e.store.ApplyRoomHistory(ev.Messages)
	case EventPrivateHistory:
		e.store.ApplyPrivateHistory(ev.PeerID, ev.Messages)
	case EventUsersList:
		e.store.ApplyUsers(ev.Users)
	case EventRoomsList:
		e.store.ApplyRooms(ev.Rooms)
	case EventTypingUpdate:
		e.store.ApplyTyping(ev.TypingUsers)
	case EventServerError:
		if ev.Err != nil {
			e.log.Warn().Str("code", ev.Err.Code).Str("msg", ev.Err.Message).Msg("server error")
		}
	}
}

func (e *Engine) handleIntent(ctx context.Context, intent Intent) {
	switch intent.Kind {
	case IntentJoin:
		e.join(ctx, intent.Username, intent.Room)
	case IntentSendMessage:
		e.sendMessage(ctx, intent.Text)
	case IntentSwitchRoom:
		e.switchRoom(ctx, intent.Room)
	case IntentOpenPrivate:
		e.openPrivate(ctx, intent.PeerID)
	case IntentClosePrivate:
		e.closePrivate(ctx)
	case IntentKeystroke:
		e.keystroke(ctx)
	}
}

func (e *Engine) join(ctx context.Context, username, room string) {
	e.session.Join(Sender{ID: e.ch.SelfID(), Username: username}, room)
	e.store.SetLocalUser(e.ch.SelfID(), username)
	e.emit(ctx, proto.OutboundTypeJoin, proto.JoinData{Username: username, Room: room})
}

// rejoin replays the session after a reconnect so the server resends
// history and roster for the active context.
func (e *Engine) rejoin(ctx context.Context) {
	if !e.session.Joined() {
		return
	}
	e.log.Info().Str("room", e.session.ActiveRoom()).Msg("channel reconnected, rejoining")
	e.emit(ctx, proto.OutboundTypeJoin, proto.JoinData{
		Username: e.session.LocalUser().Username,
		Room:     e.session.ActiveRoom(),
	})
	if peer := e.session.PrivatePeer(); peer != "" {
		e.emit(ctx, proto.OutboundTypeGetPrivateMessages, proto.GetPrivateMessagesData{TargetUserID: peer})
	}
}

func (e *Engine) sendMessage(ctx context.Context, text string) {
	content := strings.TrimSpace(text)
	if content == "" || !e.session.Joined() {
		return
	}
	if !e.store.Connected() {
		e.log.Debug().Msg("send rejected while disconnected")
		return
	}

	payload := proto.SendMessageData{
		Content: content,
		Room:    e.session.ActiveRoom(),
	}
	if peer := e.session.PrivatePeer(); peer != "" {
		payload.IsPrivate = true
		payload.TargetUserID = peer
	}
	e.emit(ctx, proto.OutboundTypeSendMessage, payload)

	// Sending ends the typing burst even if the emit was lost in transit.
	e.flushTyping(ctx)
}

func (e *Engine) switchRoom(ctx context.Context, room string) {
	if room == "" || room == e.session.ActiveRoom() {
		return
	}
	if e.session.Mode() != ModeRoom {
		e.log.Debug().Str("room", room).Msg("switch ignored outside room mode")
		return
	}

	e.flushTyping(ctx)
	e.emit(ctx, proto.OutboundTypeSwitchRoom, proto.SwitchRoomData{Room: room})
	e.session.SwitchRoom(room)
	// Optimistic clear: the log stays empty until message_history arrives.
	e.store.ClearRoomLog()
}

func (e *Engine) openPrivate(ctx context.Context, peerID string) {
	if !e.session.OpenPrivate(peerID) {
		return
	}
	e.flushTyping(ctx)
	e.emit(ctx, proto.OutboundTypeGetPrivateMessages, proto.GetPrivateMessagesData{TargetUserID: peerID})
}

func (e *Engine) closePrivate(ctx context.Context) {
	if !e.session.ClosePrivate() {
		return
	}
	e.flushTyping(ctx)
}

func (e *Engine) keystroke(ctx context.Context) {
	if !e.session.Joined() {
		return
	}
	room := e.session.ActiveRoom()
	if e.typing.Keystroke(room) {
		e.emit(ctx, proto.OutboundTypeTyping, proto.TypingData{Room: room, IsTyping: true})
	}
}

func (e *Engine) flushTyping(ctx context.Context) {
	if room, ok := e.typing.Flush(); ok {
		e.emit(ctx, proto.OutboundTypeTyping, proto.TypingData{Room: room, IsTyping: false})
	}
}

// emit is fire and forget: failures are logged and the engine moves on.
func (e *Engine) emit(ctx context.Context, event string, payload any) {
	if err := e.ch.Emit(ctx, event, payload); err != nil {
		e.log.Debug().Err(err).Str("event", event).Msg("emit dropped")
	}
}

func (e *Engine) notify(msg Message) {
	select {
	case e.notifications <- Notification{Message: msg}:
	default:
		// Drop if slow consumer.
	}
}
