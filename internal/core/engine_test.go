package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/wirechat-client/internal/channel"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

const selfID = "self-a"

// newTestEngine starts an engine over a memory channel, joins as alice in
// general and clears the emitted record so tests only see their own traffic.
func newTestEngine(t *testing.T) (*core.Engine, *channel.Memory, *clock.Mock) {
	t.Helper()

	mem := channel.NewMemory(selfID)
	clk := clock.NewMock()
	eng := core.NewEngine(mem, clk, time.Second, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = eng.Run(ctx) }()

	mem.SetConnected(true)
	eng.Join("alice", "general")
	mustEmit(t, mem, proto.OutboundTypeJoin)
	mem.Reset()

	return eng, mem, clk
}

func mustEmit(t *testing.T, mem *channel.Memory, event string) channel.Emitted {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, em := range mem.Emitted() {
			if em.Event == event {
				return em
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected event %q to be emitted, got %+v", event, mem.Emitted())
	return channel.Emitted{}
}

func mustNotEmit(t *testing.T, mem *channel.Memory, event string) {
	t.Helper()

	time.Sleep(50 * time.Millisecond)
	for _, em := range mem.Emitted() {
		if em.Event == event {
			t.Fatalf("unexpected event %q emitted: %+v", event, em)
		}
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func peerMessage(id, content string) core.Message {
	return core.Message{
		ID:        id,
		Kind:      core.MessageKindUser,
		Content:   content,
		Sender:    &core.Sender{ID: "peer-b", Username: "bob"},
		Timestamp: time.Now(),
		Room:      "general",
	}
}

func TestJoinHistoryThenSend(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.Deliver(core.Event{Kind: core.EventMessageHistory, Messages: nil})
	eng.SendMessage("hi")

	em := mustEmit(t, mem, proto.OutboundTypeSendMessage)
	payload, ok := em.Payload.(proto.SendMessageData)
	if !ok {
		t.Fatalf("payload type %T", em.Payload)
	}
	if payload.Content != "hi" || payload.Room != "general" || payload.IsPrivate {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	// Server assigns the id and echoes the message back.
	echo := core.Message{
		ID:        "m1",
		Kind:      core.MessageKindUser,
		Content:   "hi",
		Sender:    &core.Sender{ID: selfID, Username: "alice"},
		Timestamp: time.Now(),
		Room:      "general",
	}
	mem.Deliver(core.Event{Kind: core.EventMessage, Message: echo})

	waitFor(t, func() bool { return len(eng.Store().RoomMessages()) == 1 }, "room log never got the echo")
	got := eng.Store().RoomMessages()[0]
	if got.Content != "hi" || got.Sender == nil || got.Sender.Username != "alice" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestEmptyAndBlankSendsAreNoOps(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	eng.SendMessage("")
	eng.SendMessage("   \t ")

	mustNotEmit(t, mem, proto.OutboundTypeSendMessage)
}

func TestSendsRejectedWhileDisconnected(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.SetConnected(false)
	waitFor(t, func() bool { return !eng.Store().Connected() }, "disconnect never applied")
	mem.Reset()

	eng.SendMessage("lost")
	mustNotEmit(t, mem, proto.OutboundTypeSendMessage)

	mem.SetConnected(true)
	waitFor(t, func() bool { return eng.Store().Connected() }, "reconnect never applied")

	eng.SendMessage("delivered")
	em := mustEmit(t, mem, proto.OutboundTypeSendMessage)
	if em.Payload.(proto.SendMessageData).Content != "delivered" {
		t.Fatalf("unexpected payload: %+v", em.Payload)
	}
}

func TestReconnectReplaysJoin(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.SetConnected(false)
	mem.SetConnected(true)

	em := mustEmit(t, mem, proto.OutboundTypeJoin)
	payload := em.Payload.(proto.JoinData)
	if payload.Username != "alice" || payload.Room != "general" {
		t.Fatalf("unexpected rejoin payload: %+v", payload)
	}
	waitFor(t, func() bool { return eng.Store().Connected() }, "reconnect never applied")
}

func TestPrivateThreadFlow(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.Deliver(core.Event{Kind: core.EventMessageHistory, Messages: []core.Message{peerMessage("m1", "in the room")}})
	waitFor(t, func() bool { return len(eng.Store().RoomMessages()) == 1 }, "history never applied")

	eng.OpenPrivate("peer-b")
	em := mustEmit(t, mem, proto.OutboundTypeGetPrivateMessages)
	if em.Payload.(proto.GetPrivateMessagesData).TargetUserID != "peer-b" {
		t.Fatalf("unexpected payload: %+v", em.Payload)
	}

	m1 := core.Message{ID: "p1", Kind: core.MessageKindPrivate, Content: "one", IsPrivate: true,
		Sender: &core.Sender{ID: "peer-b", Username: "bob"}, TargetUserID: selfID, Room: "general"}
	m2 := core.Message{ID: "p2", Kind: core.MessageKindPrivate, Content: "two", IsPrivate: true,
		Sender: &core.Sender{ID: selfID, Username: "alice"}, TargetUserID: "peer-b", Room: "general"}
	mem.Deliver(core.Event{Kind: core.EventPrivateHistory, PeerID: "peer-b", Messages: []core.Message{m1, m2}})

	waitFor(t, func() bool { return len(eng.Store().PrivateThread("peer-b")) == 2 }, "private history never applied")
	if got := len(eng.Store().RoomMessages()); got != 1 {
		t.Fatalf("room log touched by private history: %d entries", got)
	}

	// A send in private mode routes to the open peer.
	eng.SendMessage("three")
	sendEm := mustEmit(t, mem, proto.OutboundTypeSendMessage)
	payload := sendEm.Payload.(proto.SendMessageData)
	if !payload.IsPrivate || payload.TargetUserID != "peer-b" || payload.Room != "general" {
		t.Fatalf("unexpected private send payload: %+v", payload)
	}

	// Closing the thread returns sends to the room.
	eng.ClosePrivate()
	mem.Reset()
	eng.SendMessage("back")
	roomEm := mustEmit(t, mem, proto.OutboundTypeSendMessage)
	if roomEm.Payload.(proto.SendMessageData).IsPrivate {
		t.Fatal("send after close still routed privately")
	}
}

func TestSwitchRoomClearsLogOptimistically(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.Deliver(core.Event{Kind: core.EventMessageHistory, Messages: []core.Message{peerMessage("m1", "hello")}})
	pm := core.Message{ID: "p1", Kind: core.MessageKindPrivate, Content: "psst", IsPrivate: true,
		Sender: &core.Sender{ID: "peer-b", Username: "bob"}, TargetUserID: selfID, Room: "general"}
	mem.Deliver(core.Event{Kind: core.EventMessage, Message: pm})
	waitFor(t, func() bool { return len(eng.Store().RoomMessages()) == 1 }, "history never applied")

	eng.SwitchRoom("random")
	mustEmit(t, mem, proto.OutboundTypeSwitchRoom)

	// Cleared before any message_history reply exists.
	if got := len(eng.Store().RoomMessages()); got != 0 {
		t.Fatalf("room log has %d entries after switch, want 0", got)
	}
	if got := len(eng.Store().PrivateThread("peer-b")); got != 1 {
		t.Fatalf("private thread affected by room switch: %d entries", got)
	}
	if got := eng.Session().ActiveRoom(); got != "random" {
		t.Fatalf("active room = %q, want random", got)
	}
}

func TestSwitchRoomIgnoredInPrivateMode(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	eng.OpenPrivate("peer-b")
	mustEmit(t, mem, proto.OutboundTypeGetPrivateMessages)
	mem.Reset()

	eng.SwitchRoom("random")
	mustNotEmit(t, mem, proto.OutboundTypeSwitchRoom)
	if got := eng.Session().ActiveRoom(); got != "general" {
		t.Fatalf("active room = %q, want general", got)
	}
}

func TestTypingBurstOverTheWire(t *testing.T) {
	eng, mem, clk := newTestEngine(t)

	eng.Keystroke()
	em := mustEmit(t, mem, proto.OutboundTypeTyping)
	first := em.Payload.(proto.TypingData)
	if !first.IsTyping || first.Room != "general" {
		t.Fatalf("unexpected typing payload: %+v", first)
	}

	eng.Keystroke()
	eng.Keystroke()
	time.Sleep(50 * time.Millisecond)
	if got := countTyping(mem); got != 1 {
		t.Fatalf("%d typing emissions during burst, want 1", got)
	}

	clk.Add(time.Second)
	waitFor(t, func() bool { return countTyping(mem) == 2 }, "typing=false never emitted")
	last := lastTyping(t, mem)
	if last.IsTyping || last.Room != "general" {
		t.Fatalf("unexpected stop payload: %+v", last)
	}
}

func TestSendFlushesPendingTyping(t *testing.T) {
	eng, mem, clk := newTestEngine(t)

	eng.Keystroke()
	mustEmit(t, mem, proto.OutboundTypeTyping)

	eng.SendMessage("hi")
	mustEmit(t, mem, proto.OutboundTypeSendMessage)

	waitFor(t, func() bool { return countTyping(mem) == 2 }, "send did not flush typing")
	if last := lastTyping(t, mem); last.IsTyping {
		t.Fatalf("expected typing=false after send, got %+v", last)
	}

	// The cancelled timer must not produce a second stop later.
	clk.Add(2 * time.Second)
	time.Sleep(50 * time.Millisecond)
	if got := countTyping(mem); got != 2 {
		t.Fatalf("%d typing emissions, want 2", got)
	}
}

func TestSwitchRoomStopsTypingForOldRoom(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	eng.Keystroke()
	mustEmit(t, mem, proto.OutboundTypeTyping)

	eng.SwitchRoom("random")
	mustEmit(t, mem, proto.OutboundTypeSwitchRoom)

	var stop *proto.TypingData
	var stopIdx, switchIdx int
	for i, em := range mem.Emitted() {
		switch em.Event {
		case proto.OutboundTypeTyping:
			if data := em.Payload.(proto.TypingData); !data.IsTyping {
				d := data
				stop, stopIdx = &d, i
			}
		case proto.OutboundTypeSwitchRoom:
			switchIdx = i
		}
	}
	if stop == nil {
		t.Fatal("no typing=false emitted on switch")
	}
	if stop.Room != "general" {
		t.Fatalf("typing=false for %q, want the old room general", stop.Room)
	}
	if stopIdx > switchIdx {
		t.Fatal("typing=false emitted after switch_room")
	}
}

func TestPeerMessageNotifies(t *testing.T) {
	eng, mem, _ := newTestEngine(t)

	mem.Deliver(core.Event{Kind: core.EventMessage, Message: peerMessage("m1", "hello")})

	select {
	case n := <-eng.Notifications():
		if n.Message.ID != "m1" {
			t.Fatalf("unexpected notification: %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for peer message")
	}

	// Own echo must stay silent.
	own := peerMessage("m2", "mine")
	own.Sender = &core.Sender{ID: selfID, Username: "alice"}
	mem.Deliver(core.Event{Kind: core.EventMessage, Message: own})
	waitFor(t, func() bool { return len(eng.Store().RoomMessages()) == 2 }, "echo never applied")

	select {
	case n := <-eng.Notifications():
		t.Fatalf("unexpected notification for own echo: %+v", n)
	default:
	}
}

func countTyping(mem *channel.Memory) int {
	n := 0
	for _, em := range mem.Emitted() {
		if em.Event == proto.OutboundTypeTyping {
			n++
		}
	}
	return n
}

func lastTyping(t *testing.T, mem *channel.Memory) proto.TypingData {
	t.Helper()
	var last proto.TypingData
	found := false
	for _, em := range mem.Emitted() {
		if em.Event == proto.OutboundTypeTyping {
			last = em.Payload.(proto.TypingData)
			found = true
		}
	}
	if !found {
		t.Fatal("no typing emission recorded")
	}
	return last
}
