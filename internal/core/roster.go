package core

import "time"

// User is a roster entry as broadcast by the server. Identity is the
// server-assigned ID; Username is display-only.
type User struct {
	ID       string
	Username string
	Room     string
	IsOnline bool
	LastSeen time.Time
}

// Room is a room directory entry.
type Room struct {
	ID      string
	Name    string
	Members []string
}
