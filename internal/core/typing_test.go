package core

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestDebounceBurstEmitsOneTransitionPair(t *testing.T) {
	clk := clock.NewMock()
	tc := NewTypingCoordinator(clk, time.Second)

	if !tc.Keystroke("general") {
		t.Fatal("first keystroke must start a burst")
	}
	for i := 0; i < 10; i++ {
		clk.Add(100 * time.Millisecond)
		if tc.Keystroke("general") {
			t.Fatal("keystroke inside a burst must not re-emit typing=true")
		}
	}

	// Quiet period elapses with no further keystrokes.
	clk.Add(time.Second)
	select {
	case <-tc.C():
	default:
		t.Fatal("quiet timer did not fire")
	}

	room, ok := tc.Expire()
	if !ok || room != "general" {
		t.Fatalf("Expire = (%q, %v), want (general, true)", room, ok)
	}
	if _, again := tc.Expire(); again {
		t.Fatal("second Expire must be a no-op")
	}
}

func TestKeystrokeReArmsQuietTimer(t *testing.T) {
	clk := clock.NewMock()
	tc := NewTypingCoordinator(clk, time.Second)

	tc.Keystroke("general")
	clk.Add(900 * time.Millisecond)
	tc.Keystroke("general")
	clk.Add(900 * time.Millisecond)

	select {
	case <-tc.C():
		t.Fatal("timer fired before the quiet period elapsed")
	default:
	}

	clk.Add(100 * time.Millisecond)
	select {
	case <-tc.C():
	default:
		t.Fatal("timer did not fire after the quiet period")
	}
}

func TestFlushCancelsPendingTimer(t *testing.T) {
	clk := clock.NewMock()
	tc := NewTypingCoordinator(clk, time.Second)

	tc.Keystroke("general")
	room, ok := tc.Flush()
	if !ok || room != "general" {
		t.Fatalf("Flush = (%q, %v), want (general, true)", room, ok)
	}

	clk.Add(2 * time.Second)
	select {
	case <-tc.C():
		t.Fatal("cancelled timer fired; a stale typing=false would hit the wrong room")
	default:
	}

	if _, again := tc.Flush(); again {
		t.Fatal("Flush without a burst must be a no-op")
	}
}

func TestStaleFireAfterFlushIsIgnored(t *testing.T) {
	clk := clock.NewMock()
	tc := NewTypingCoordinator(clk, time.Second)

	tc.Keystroke("general")
	clk.Add(time.Second) // fire lands in the channel buffer
	tc.Flush()           // consumer flushed before draining the fire

	if _, ok := tc.Expire(); ok {
		t.Fatal("stale fire must not produce a second typing=false")
	}
}

func TestNewBurstAfterFlush(t *testing.T) {
	clk := clock.NewMock()
	tc := NewTypingCoordinator(clk, time.Second)

	tc.Keystroke("general")
	tc.Flush()

	if !tc.Keystroke("random") {
		t.Fatal("keystroke after flush must start a fresh burst")
	}
	clk.Add(time.Second)
	<-tc.C()
	room, ok := tc.Expire()
	if !ok || room != "random" {
		t.Fatalf("Expire = (%q, %v), want (random, true)", room, ok)
	}
}
