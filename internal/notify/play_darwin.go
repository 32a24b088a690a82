//go:build darwin

package notify

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const systemSoundDir = "/System/Library/Sounds"

// playSound plays a named macOS system sound (e.g. "Tink", "Glass").
func playSound(name string) error {
	path := filepath.Join(systemSoundDir, name+".aiff")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("system sound %q not found: %w", name, err)
	}
	return exec.Command("afplay", path).Run()
}
