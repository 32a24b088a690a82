package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cassaicus/Shotbar/internal/resilience"
	"github.com/cassaicus/Shotbar/internal/screen"
	"github.com/cassaicus/Shotbar/internal/settings"
	"github.com/cassaicus/Shotbar/internal/syncx"
	"github.com/cassaicus/Shotbar/internal/trace"
)

// Event types emitted on the session channel.
const (
	EventStarted = "started"
	EventShot    = "shot"
	EventStopped = "stopped"
)

// Stop reasons.
const (
	ReasonManual        = "manual"
	ReasonMaxShots      = "max_shots"
	ReasonDuplicate     = "duplicate"
	ReasonCaptureFailed = "capture_failed"
)

// ErrAlreadyRunning is returned by Start while a session is active.
var ErrAlreadyRunning = errors.New("capture session already running")

// Event describes a session state change.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Path      string `json:"path,omitempty"`
	Count     int    `json:"count"`
	Reason    string `json:"reason,omitempty"`
}

// Detector reports whether a frame perceptually matches the previous one.
type Detector interface {
	Reset()
	SetThreshold(float64)
	IsDuplicate(ctx context.Context, frame image.Image) bool
}

// Saver persists a frame and returns the file path.
type Saver interface {
	Save(dir string, img image.Image, at time.Time) (string, error)
}

// Notifier plays a named notification sound.
type Notifier interface {
	Play(name string)
}

// Preferences supplies capture settings and records finished runs.
type Preferences interface {
	Get() settings.Settings
	RecordSession(id string, started, ended time.Time, shots int, reason string) error
}

// LastShot is the most recent saved capture of the current or previous session.
type LastShot struct {
	Path  string
	Count int
}

// Manager owns the capture loop: on each tick it captures a frame, saves it,
// and asks the duplicate detector whether the screen has stopped changing.
// Settings are sampled once at Start; only the duplicate threshold is pushed
// into a running session (via ApplySettings).
//
// The loop runs on a single goroutine and awaits each save and duplicate
// check before acting on the next tick, which upholds the detector's
// one-check-in-flight discipline.
type Manager struct {
	capturer screen.Capturer
	detector Detector
	prefs    Preferences
	saver    Saver
	notify   Notifier

	breaker  *resilience.Breaker
	lastShot *syncx.RWGuard[LastShot]

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	subs    []chan Event
	wg      sync.WaitGroup
}

// New creates a session manager.
func New(capturer screen.Capturer, detector Detector, prefs Preferences, saver Saver, notify Notifier) *Manager {
	return &Manager{
		capturer: capturer,
		detector: detector,
		prefs:    prefs,
		saver:    saver,
		notify:   notify,
		breaker:  resilience.New(resilience.CaptureConfig()),
		lastShot: syncx.NewGuard(LastShot{}),
	}
}

// Start begins a capture session. The detector baseline is cleared so the
// first frame of the new session is never judged against the previous one.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	prefs := m.prefs.Get()
	m.detector.SetThreshold(prefs.DuplicateThreshold)
	m.detector.Reset()
	m.breaker.Reset()
	m.lastShot.Set(LastShot{})

	id := uuid.NewString()
	m.wg.Add(1)
	go m.run(runCtx, id, prefs)
	return nil
}

// Stop ends the current session and waits for the loop to finish. No-op if
// nothing is running.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Running reports whether a session is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastShot returns the most recent saved capture.
func (m *Manager) LastShot() LastShot {
	return m.lastShot.Get()
}

// ApplySettings pushes updated preferences into the detector. Interval,
// folder and shot-count changes take effect on the next session.
func (m *Manager) ApplySettings(s settings.Settings) {
	m.detector.SetThreshold(s.DuplicateThreshold)
}

// Subscribe returns a channel of session events. Events are dropped for
// subscribers that fall behind; they carry UI state, not data.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, EventBuffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) emit(e Event) {
	m.mu.Lock()
	subs := make([]chan Event, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (m *Manager) run(ctx context.Context, id string, prefs settings.Settings) {
	defer m.wg.Done()

	interval := time.Duration(prefs.IntervalSeconds * float64(time.Second))
	if interval < MinInterval {
		interval = MinInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := trace.Logger(ctx)
	log.Info("capture session started", "session", id, "interval", interval,
		"max_shots", prefs.MaxShots, "detect_duplicates", prefs.DetectDuplicates)
	m.emit(Event{Type: EventStarted, SessionID: id})

	started := time.Now()
	shots := 0
	reason := ReasonManual

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			var stop bool
			shots, reason, stop = m.tick(ctx, id, prefs, shots)
			if stop {
				break loop
			}
		}
	}

	if prefs.EndSound != "" {
		m.notify.Play(prefs.EndSound)
	}
	ended := time.Now()
	if err := m.prefs.RecordSession(id, started, ended, shots, reason); err != nil {
		log.Warn("failed to record session", "session", id, "error", err)
	}

	m.mu.Lock()
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	log.Info("capture session ended", "session", id, "shots", shots, "reason", reason)
	m.emit(Event{Type: EventStopped, SessionID: id, Count: shots, Reason: reason})
}

// tick performs one capture cycle. It returns the updated shot count, the
// stop reason so far, and whether the session should end.
func (m *Manager) tick(ctx context.Context, id string, prefs settings.Settings, shots int) (int, string, bool) {
	ctx, span := trace.StartSpan(ctx, "capture_tick")
	defer span.End()
	log := trace.Logger(ctx)

	var frame image.Image
	err := m.breaker.Execute(func() error {
		img, err := m.capturer.Capture()
		if err != nil {
			return err
		}
		frame = img
		return nil
	})
	if err != nil {
		span.SetAttr("error", err.Error())
		if errors.Is(err, resilience.ErrOpen) {
			log.Error("capture backend unavailable, stopping session", "session", id)
			return shots, ReasonCaptureFailed, true
		}
		log.Warn("capture failed", "session", id, "error", err)
		return shots, ReasonManual, false
	}

	var path string
	saveErr := resilience.Retry(ctx, resilience.SaveRetryConfig(), func() error {
		p, err := m.saver.Save(prefs.SaveDir, frame, time.Now())
		if err != nil {
			return err
		}
		path = p
		return nil
	})
	if saveErr != nil {
		span.SetAttr("error", saveErr.Error())
		log.Warn("failed to save shot", "session", id, "dir", prefs.SaveDir, "error", saveErr)
		return shots, ReasonManual, false
	}

	shots++
	span.SetAttr("shot", shots)
	m.lastShot.Set(LastShot{Path: path, Count: shots})
	if prefs.ShutterSound != "" {
		m.notify.Play(prefs.ShutterSound)
	}
	log.Debug("shot saved", "session", id, "path", path, "count", shots)
	m.emit(Event{Type: EventShot, SessionID: id, Path: path, Count: shots})

	// The shot is already on disk when the duplicate check runs; a duplicate
	// verdict costs one redundant file, never a missed frame.
	if prefs.DetectDuplicates && m.detector.IsDuplicate(ctx, frame) {
		log.Info("screen stopped changing, stopping session", "session", id, "shots", shots)
		return shots, ReasonDuplicate, true
	}

	if prefs.MaxShots > 0 && shots >= prefs.MaxShots {
		return shots, ReasonMaxShots, true
	}
	return shots, ReasonManual, false
}
