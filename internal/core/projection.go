package core

import (
	"sort"
	"sync"
)

// Store owns the local projections of server state: the room message log,
// private threads keyed by counterpart, the roster, the room directory, the
// typing set and the connectivity flag. Reducers run only on the engine
// goroutine; the lock exists for snapshot reads by consumers.
//
// All non-private messages accumulate in one flat log in arrival order.
// Consumers viewing a single room compare Message.Room to the active room.
type Store struct {
	mu sync.RWMutex

	localID   string
	localName string

	connected bool

	roomLog  []Message
	roomSeen map[string]struct{}

	threads    map[string][]Message
	threadSeen map[string]map[string]struct{}

	users  []User
	rooms  []Room
	typing []string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		roomSeen:   make(map[string]struct{}),
		threads:    make(map[string][]Message),
		threadSeen: make(map[string]map[string]struct{}),
	}
}

// SetLocalUser records the local identity used for thread-key derivation,
// own-echo detection and typing-set filtering.
func (s *Store) SetLocalUser(id, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localID = id
	s.localName = username
}

// ApplyMessage appends one message to the room log or to its private
// thread, creating the thread on first access. Replayed messages are
// dropped by id. It reports whether the consumer should be notified of a
// new message, which is never the case for the local user's own echo.
func (s *Store) ApplyMessage(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.IsPrivate {
		key := msg.ThreadKey(s.localID)
		if key == "" {
			return false
		}
		seen := s.threadSeen[key]
		if seen == nil {
			seen = make(map[string]struct{})
			s.threadSeen[key] = seen
		}
		if !markSeen(seen, msg.ID) {
			return false
		}
		s.threads[key] = append(s.threads[key], msg)
	} else {
		if !markSeen(s.roomSeen, msg.ID) {
			return false
		}
		s.roomLog = append(s.roomLog, msg)
	}

	return msg.Sender == nil || msg.Sender.ID != s.localID
}

// ApplyRoomHistory replaces the room log wholesale.
func (s *Store) ApplyRoomHistory(history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomLog = append([]Message(nil), history...)
	s.roomSeen = make(map[string]struct{}, len(history))
	for _, m := range history {
		markSeen(s.roomSeen, m.ID)
	}
}

// ClearRoomLog drops the room log, used for the optimistic clear on room
// switch while the history reply is in flight. Private threads are untouched.
func (s *Store) ClearRoomLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomLog = nil
	s.roomSeen = make(map[string]struct{})
}

// ApplyPrivateHistory replaces the named thread wholesale.
func (s *Store) ApplyPrivateHistory(peerID string, history []Message) {
	if peerID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[peerID] = append([]Message(nil), history...)
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		markSeen(seen, m.ID)
	}
	s.threadSeen[peerID] = seen
}

// ApplyUsers replaces the roster wholesale.
func (s *Store) ApplyUsers(users []User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]User(nil), users...)
}

// ApplyRooms replaces the room directory wholesale.
func (s *Store) ApplyRooms(rooms []Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append([]Room(nil), rooms...)
}

// ApplyTyping replaces the typing set wholesale, excluding the local user.
// The wire may carry either ids or usernames, so both are filtered.
func (s *Store) ApplyTyping(typing []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]string, 0, len(typing))
	for _, who := range typing {
		if who == s.localID || (s.localName != "" && who == s.localName) {
			continue
		}
		filtered = append(filtered, who)
	}
	s.typing = filtered
}

// ApplyConnectivity updates the connection flag. No projection is cleared;
// the server resends history and roster after a reconnect.
func (s *Store) ApplyConnectivity(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// Connected reports the last known transport state.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// RoomMessages returns a copy of the flat room log in arrival order.
func (s *Store) RoomMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.roomLog...)
}

// PrivateThread returns a copy of the thread with the given peer.
func (s *Store) PrivateThread(peerID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.threads[peerID]...)
}

// ThreadPeers lists peers with an open private thread, sorted for stable
// presentation.
func (s *Store) ThreadPeers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	peers := make([]string, 0, len(s.threads))
	for peer := range s.threads {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

// Users returns a copy of the roster.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}

// Rooms returns a copy of the room directory.
func (s *Store) Rooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Room(nil), s.rooms...)
}

// TypingUsers returns a copy of the typing set.
func (s *Store) TypingUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.typing...)
}

// markSeen records id and reports whether it was new. Messages without an
// id are never deduplicated.
func markSeen(seen map[string]struct{}, id string) bool {
	if id == "" {
		return true
	}
	if _, dup := seen[id]; dup {
		return false
	}
	seen[id] = struct{}{}
	return true
}
