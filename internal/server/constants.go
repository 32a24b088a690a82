// Package server provides the local HTTP and WebSocket control API
package server

import "time"

// Server configuration constants
const (
	// Session history page size for the API
	SessionHistoryLimit = 50

	// Per-connection WebSocket rate limiting
	RateLimitMessages = 30
	RateLimitWindow   = time.Second
)
