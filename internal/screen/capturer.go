// Package screen provides display capture
package screen

import "image"

// Capturer produces raw frames of a display.
type Capturer interface {
	Capture() (*image.RGBA, error)
	Bounds() (image.Rectangle, error)
}
