package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

// TypingCoordinator debounces local compose activity into at most one
// typing=true notification per burst, followed by exactly one typing=false
// after the quiet period. All methods run on the engine goroutine.
type TypingCoordinator struct {
	clk    clock.Clock
	delay  time.Duration
	timer  *clock.Timer
	active bool
	room   string
}

// NewTypingCoordinator builds a coordinator with the given quiet period.
func NewTypingCoordinator(clk clock.Clock, delay time.Duration) *TypingCoordinator {
	if delay <= 0 {
		delay = time.Second
	}
	return &TypingCoordinator{clk: clk, delay: delay}
}

// Keystroke registers compose activity in room and (re)arms the quiet timer.
// It returns true exactly once per burst, when typing=true must be emitted.
func (t *TypingCoordinator) Keystroke(room string) bool {
	if t.active && t.room == room {
		t.timer.Reset(t.delay)
		return false
	}
	t.active = true
	t.room = room
	if t.timer == nil {
		t.timer = t.clk.Timer(t.delay)
	} else {
		t.timer.Reset(t.delay)
	}
	return true
}

// C is the quiet-timer channel for the engine select. Nil while no timer
// has ever been armed, which blocks that select case.
func (t *TypingCoordinator) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C
}

// Expire handles a fired quiet timer. It returns the room to notify as
// stopped, or false for a stale fire that a Flush already covered.
func (t *TypingCoordinator) Expire() (string, bool) {
	if !t.active {
		return "", false
	}
	t.active = false
	return t.room, true
}

// Flush cancels the pending timer on send or context switch. It returns the
// room to notify as stopped, or false if no burst was in progress.
func (t *TypingCoordinator) Flush() (string, bool) {
	if t.timer != nil {
		t.timer.Stop()
	}
	if !t.active {
		return "", false
	}
	t.active = false
	return t.room, true
}

// Active reports whether a typing burst is in progress.
func (t *TypingCoordinator) Active() bool {
	return t.active
}
