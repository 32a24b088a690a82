// Package tray provides the system tray menu for controlling capture sessions.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. Menu state mirrors the session manager and
// the duplicate-detection preference; the owning process pushes updates via
// SetRunning, SetShotCount, and SetDetectDuplicates.
type Tray struct {
	onStartStop    func(start bool)
	onDetectToggle func(enabled bool)
	onSettings     func()
	onQuit         func()

	running bool
	detect  bool
	mu      sync.RWMutex

	menuStartStop *systray.MenuItem
	menuDetect    *systray.MenuItem
	menuShots     *systray.MenuItem
}

// New creates a Tray. detectDuplicates sets the initial state of the
// duplicate-detection checkbox.
func New(detectDuplicates bool) *Tray {
	return &Tray{detect: detectDuplicates}
}

// OnStartStop sets the callback for the start/stop menu item. start is true
// when the user asked to begin a session.
func (t *Tray) OnStartStop(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStartStop = fn
}

// OnDetectToggle sets the callback for the duplicate-detection checkbox.
func (t *Tray) OnDetectToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDetectToggle = fn
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray loop. Blocks until systray.Quit() is called, and must
// run on the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears down the tray from outside a menu click.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Shotbar")
	systray.SetTooltip("Shotbar automatic screenshots")

	t.mu.Lock()
	t.menuStartStop = systray.AddMenuItem("Start Capture", "Start a capture session")
	systray.AddSeparator()

	t.menuShots = systray.AddMenuItem("Shots: 0", "Shots taken in the current session")
	t.menuShots.Disable()

	t.menuDetect = systray.AddMenuItemCheckbox("Stop on Duplicate", "Stop when the screen stops changing", t.detect)
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Shotbar")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuStartStop.ClickedCh:
				t.handleStartStop()
			case <-t.menuDetect.ClickedCh:
				t.handleDetectToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleStartStop() {
	t.mu.RLock()
	start := !t.running
	callback := t.onStartStop
	t.mu.RUnlock()

	// The menu title follows the session manager's actual state via
	// SetRunning, not the click itself.
	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handleDetectToggle() {
	t.mu.Lock()
	t.detect = !t.detect
	enabled := t.detect

	if enabled {
		t.menuDetect.Check()
	} else {
		t.menuDetect.Uncheck()
	}

	callback := t.onDetectToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning updates the start/stop menu item to reflect session state.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuStartStop == nil {
		return
	}
	if running {
		t.menuStartStop.SetTitle("Stop Capture")
	} else {
		t.menuStartStop.SetTitle("Start Capture")
	}
}

// SetShotCount updates the shot counter display.
func (t *Tray) SetShotCount(n int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuShots != nil {
		t.menuShots.SetTitle(fmt.Sprintf("Shots: %d", n))
	}
}

// SetDetectDuplicates syncs the checkbox with the stored preference, for
// changes made through the settings API rather than the menu.
func (t *Tray) SetDetectDuplicates(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.detect == enabled {
		return
	}
	t.detect = enabled
	if t.menuDetect == nil {
		return
	}
	if enabled {
		t.menuDetect.Check()
	} else {
		t.menuDetect.Uncheck()
	}
}

// IsRunning reports the tray's view of session state.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}
