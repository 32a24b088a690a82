package storage

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveWritesPNG(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	at := time.Date(2026, 8, 30, 14, 5, 6, 789e6, time.UTC)

	path, err := s.Save(dir, img, at)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	base := filepath.Base(path)
	if base != "Shotbar_20260830_140506.789.png" {
		t.Errorf("file name = %q, want timestamped Shotbar name", base)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open saved shot: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("saved shot is not valid PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shots")
	s := NewSaver()

	path, err := s.Save(dir, image.NewRGBA(image.Rect(0, 0, 2, 2)), time.Now())
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path = %q, want inside %q", path, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("save dir should exist: %v", err)
	}
}

func TestSaveBadDirectory(t *testing.T) {
	// A file standing where the directory should be.
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSaver()
	if _, err := s.Save(blocked, image.NewRGBA(image.Rect(0, 0, 2, 2)), time.Now()); err == nil {
		t.Error("expected error when save dir path is a file")
	}
}
