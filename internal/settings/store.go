package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Settings keys in the key/value table.
const (
	keyInterval           = "interval_seconds"
	keyMaxShots           = "max_shots"
	keySaveDir            = "save_dir"
	keyDetectDuplicates   = "detect_duplicates"
	keyDuplicateThreshold = "duplicate_threshold"
	keyShutterSound       = "shutter_sound"
	keyEndSound           = "end_sound"
	keyDisplay            = "display"
)

// Store is a SQLite-backed settings store. It keeps the current settings in
// memory and notifies a listener whenever they change.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	current  Settings
	onChange func(Settings)
}

// Open opens (or creates) the store at dbPath. Persisted values overlay the
// given defaults, so a fresh database starts from defaults and an existing
// one keeps the user's choices.
func Open(dbPath string, defaults Settings) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	defaults.DuplicateThreshold = ClampThreshold(defaults.DuplicateThreshold)
	s := &Store{db: db, current: defaults}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate settings database: %w", err)
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers a listener called after each successful Update.
func (s *Store) OnChange(fn func(Settings)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Update persists new settings and notifies the listener. The duplicate
// threshold is clamped before anything is stored or pushed downstream.
func (s *Store) Update(in Settings) error {
	in.DuplicateThreshold = ClampThreshold(in.DuplicateThreshold)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings update: %w", err)
	}
	for key, value := range map[string]string{
		keyInterval:           strconv.FormatFloat(in.IntervalSeconds, 'f', -1, 64),
		keyMaxShots:           strconv.Itoa(in.MaxShots),
		keySaveDir:            in.SaveDir,
		keyDetectDuplicates:   strconv.FormatBool(in.DetectDuplicates),
		keyDuplicateThreshold: strconv.FormatFloat(in.DuplicateThreshold, 'f', -1, 64),
		keyShutterSound:       in.ShutterSound,
		keyEndSound:           in.EndSound,
		keyDisplay:            strconv.Itoa(in.Display),
	} {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("store setting %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings update: %w", err)
	}

	s.mu.Lock()
	s.current = in
	fn := s.onChange
	s.mu.Unlock()

	// Listener runs outside the lock so it can call back into the store.
	if fn != nil {
		fn(in)
	}
	return nil
}

// load overlays persisted values onto the in-memory settings.
func (s *Store) load() error {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return err
	}
	defer rows.Close()

	cur := s.current
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		switch key {
		case keyInterval:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				cur.IntervalSeconds = f
			}
		case keyMaxShots:
			if n, err := strconv.Atoi(value); err == nil {
				cur.MaxShots = n
			}
		case keySaveDir:
			cur.SaveDir = value
		case keyDetectDuplicates:
			if b, err := strconv.ParseBool(value); err == nil {
				cur.DetectDuplicates = b
			}
		case keyDuplicateThreshold:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				cur.DuplicateThreshold = ClampThreshold(f)
			}
		case keyShutterSound:
			cur.ShutterSound = value
		case keyEndSound:
			cur.EndSound = value
		case keyDisplay:
			if n, err := strconv.Atoi(value); err == nil {
				cur.Display = n
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = cur
	s.mu.Unlock()
	return nil
}

// SessionRecord is one finished capture session.
type SessionRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Shots     int       `json:"shots"`
	Reason    string    `json:"reason"`
}

// RecordSession stores a finished session in the history table.
func (s *Store) RecordSession(id string, started, ended time.Time, shots int, reason string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, started_at, ended_at, shots, reason) VALUES (?, ?, ?, ?, ?)`,
		id, started.UTC().Format(time.RFC3339Nano), ended.UTC().Format(time.RFC3339Nano), shots, reason)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit finished sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, ended_at, shots, reason FROM sessions
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, ended string
		if err := rows.Scan(&rec.ID, &started, &ended, &rec.Shots, &rec.Reason); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, ended)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// migrate executes all database migrations.
func (s *Store) migrate() error {
	migrations := []string{
		// Settings table - key/value preference pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Sessions table - finished capture session history
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			shots INTEGER NOT NULL,
			reason TEXT NOT NULL
		)`,
	}
	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
