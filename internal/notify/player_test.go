package notify

import (
	"testing"
	"time"
)

func TestPlayEmptyNameIsNoop(t *testing.T) {
	p := NewPlayer()
	// Must return immediately without spawning playback.
	p.Play("")
}

func TestPlayDoesNotBlock(t *testing.T) {
	p := NewPlayer()

	done := make(chan struct{})
	go func() {
		// Playback of a bogus name fails in the background; the call
		// itself must return promptly.
		p.Play("definitely-not-a-real-sound-name")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Play blocked the caller")
	}
}

func TestNoopPlayer(t *testing.T) {
	var n Noop
	n.Play("anything")
}
