// Package storage persists captured frames to disk
package storage

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

const (
	filePrefix     = "Shotbar_"
	fileTimeFormat = "20060102_150405.000"
)

// Saver writes frames as timestamped PNG files.
type Saver struct{}

// NewSaver creates a shot saver.
func NewSaver() *Saver {
	return &Saver{}
}

// Save writes img under dir and returns the file path. The directory is
// created if missing. A partially written file is removed on encode failure.
func (s *Saver) Save(dir string, img image.Image, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create save dir: %w", err)
	}

	path := filepath.Join(dir, filePrefix+at.Format(fileTimeFormat)+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create shot file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode shot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close shot file: %w", err)
	}
	return path, nil
}
