//go:build windows

package notify

import "fmt"

// playSound is not implemented on Windows yet.
func playSound(name string) error {
	return fmt.Errorf("sound playback not implemented on windows")
}
