// Package server provides the local HTTP and WebSocket control API
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/cassaicus/Shotbar/internal/session"
	"github.com/cassaicus/Shotbar/internal/settings"
	"github.com/cassaicus/Shotbar/internal/trace"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type SessionMessage struct {
	Type  string        `json:"type"`
	Event session.Event `json:"event"`
}

type StatusMessage struct {
	Type     string `json:"type"`
	Running  bool   `json:"running"`
	Shots    int    `json:"shots"`
	LastPath string `json:"last_path,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	mgr   *session.Manager
	store *settings.Store

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server and starts broadcasting session events.
func New(mgr *session.Manager, store *settings.Store) *Server {
	s := &Server{
		mgr:        mgr,
		store:      store,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastSessionEvents()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/session/start", s.handleSessionStart)
	mux.HandleFunc("POST /api/session/stop", s.handleSessionStop)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/shots/latest", s.handleLatestShot)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last := s.mgr.LastShot()
	writeJSON(w, StatusMessage{
		Type:     "status",
		Running:  s.mgr.Running(),
		Shots:    last.Count,
		LastPath: last.Path,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Get())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	// Update clamps the threshold and notifies the session manager.
	if err := s.store.Update(in); err != nil {
		trace.Logger(r.Context()).Error("settings update failed", "error", err)
		http.Error(w, "failed to store settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.store.Get())
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	log := trace.Logger(r.Context())
	// The session outlives the HTTP request.
	if err := s.mgr.Start(context.Background()); err != nil {
		if errors.Is(err, session.ErrAlreadyRunning) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Error("session start failed", "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	log.Info("session started via API")
	writeJSON(w, map[string]string{"status": "started"})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	s.mgr.Stop()
	trace.Logger(r.Context()).Info("session stopped via API")
	writeJSON(w, map[string]string{"status": "stopped"})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.RecentSessions(SessionHistoryLimit)
	if err != nil {
		trace.Logger(r.Context()).Error("session history query failed", "error", err)
		http.Error(w, "failed to load session history", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []settings.SessionRecord{}
	}
	writeJSON(w, recs)
}

func (s *Server) handleLatestShot(w http.ResponseWriter, r *http.Request) {
	last := s.mgr.LastShot()
	if last.Path == "" {
		http.Error(w, "no shot captured yet", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, last.Path)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "status":
			last := s.mgr.LastShot()
			_ = wsjson.Write(baseCtx, conn, StatusMessage{
				Type:     "status",
				Running:  s.mgr.Running(),
				Shots:    last.Count,
				LastPath: last.Path,
			})
		}
	}
}

func (s *Server) broadcastSessionEvents() {
	for evt := range s.mgr.Subscribe() {
		msg := SessionMessage{Type: "session", Event: evt}

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				_ = wsjson.Write(context.Background(), c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}
