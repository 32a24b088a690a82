// Package session runs the timed capture loop
package session

import "time"

// Session configuration constants
const (
	// Per-subscriber event channel buffer
	EventBuffer = 32

	// Floor for the capture interval; protects against a zeroed setting
	MinInterval = 50 * time.Millisecond
)
