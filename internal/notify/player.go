// Package notify plays notification sounds through OS sound facilities
package notify

import "log/slog"

// Player plays named system sounds.
type Player struct{}

// NewPlayer creates a platform sound player.
func NewPlayer() *Player {
	return &Player{}
}

// Play plays the named system sound without blocking the caller. An empty
// name is a no-op. Playback failures are logged, never returned; a missing
// sound must not disturb the capture loop.
func (p *Player) Play(name string) {
	if name == "" {
		return
	}
	go func() {
		if err := playSound(name); err != nil {
			slog.Debug("sound playback failed", "sound", name, "error", err)
		}
	}()
}

// Noop is a Player substitute that stays silent.
type Noop struct{}

// Play discards the request.
func (Noop) Play(string) {}
