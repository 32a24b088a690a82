package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// DisplayCapturer captures a single display by index. An out-of-range index
// falls back to the primary display, so a stale setting after a monitor is
// unplugged still captures something.
type DisplayCapturer struct {
	display int
}

// NewDisplay creates a capturer for the display at index.
func NewDisplay(index int) *DisplayCapturer {
	return &DisplayCapturer{display: index}
}

// Bounds returns the pixel bounds of the target display.
func (c *DisplayCapturer) Bounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays")
	}
	idx := c.display
	if idx < 0 || idx >= n {
		idx = 0
	}
	return screenshot.GetDisplayBounds(idx), nil
}

// Capture grabs the target display and returns the raw frame.
func (c *DisplayCapturer) Capture() (*image.RGBA, error) {
	bounds, err := c.Bounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", c.display, err)
	}
	return img, nil
}
