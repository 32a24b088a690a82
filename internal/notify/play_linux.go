//go:build linux

package notify

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

const freedesktopSoundDir = "/usr/share/sounds/freedesktop/stereo"

// playSound plays a named sound through canberra or pulseaudio, whichever
// is installed.
func playSound(name string) error {
	if _, err := exec.LookPath("canberra-gtk-play"); err == nil {
		return exec.Command("canberra-gtk-play", "-i", name).Run()
	}
	if _, err := exec.LookPath("paplay"); err == nil {
		return exec.Command("paplay", filepath.Join(freedesktopSoundDir, name+".oga")).Run()
	}
	return fmt.Errorf("no sound player found (install canberra-gtk-play or paplay)")
}
