package config

import (
	"log/slog"
	"os"
	"testing"
)

var envVars = []string{
	"HTTP_ADDR", "DB_PATH", "LOG_LEVEL", "CAPTURE_INTERVAL", "MAX_SHOTS",
	"SAVE_DIR", "DETECT_DUPLICATES", "DUPLICATE_THRESHOLD", "SHUTTER_SOUND",
	"END_SOUND", "DISPLAY_INDEX",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != "127.0.0.1:8765" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:8765")
	}
	if cfg.IntervalSeconds != 5.0 {
		t.Errorf("IntervalSeconds = %v, want 5.0", cfg.IntervalSeconds)
	}
	if cfg.MaxShots != 20 {
		t.Errorf("MaxShots = %d, want 20", cfg.MaxShots)
	}
	if !cfg.DetectDuplicates {
		t.Error("DetectDuplicates should default to true")
	}
	if cfg.DuplicateThreshold != 0.05 {
		t.Errorf("DuplicateThreshold = %v, want 0.05", cfg.DuplicateThreshold)
	}
	if cfg.ShutterSound != "Tink" {
		t.Errorf("ShutterSound = %q, want %q", cfg.ShutterSound, "Tink")
	}
	if cfg.EndSound != "Glass" {
		t.Errorf("EndSound = %q, want %q", cfg.EndSound, "Glass")
	}
	if cfg.Display != 0 {
		t.Errorf("Display = %d, want 0", cfg.Display)
	}
	if cfg.DBPath == "" || cfg.SaveDir == "" {
		t.Error("DBPath and SaveDir should have defaults")
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("CAPTURE_INTERVAL", "2.5")
	t.Setenv("MAX_SHOTS", "7")
	t.Setenv("DETECT_DUPLICATES", "false")
	t.Setenv("DUPLICATE_THRESHOLD", "0.1")
	t.Setenv("DISPLAY_INDEX", "1")

	cfg := Load()

	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.IntervalSeconds != 2.5 {
		t.Errorf("IntervalSeconds = %v, want 2.5", cfg.IntervalSeconds)
	}
	if cfg.MaxShots != 7 {
		t.Errorf("MaxShots = %d, want 7", cfg.MaxShots)
	}
	if cfg.DetectDuplicates {
		t.Error("DetectDuplicates should be false")
	}
	if cfg.DuplicateThreshold != 0.1 {
		t.Errorf("DuplicateThreshold = %v, want 0.1", cfg.DuplicateThreshold)
	}
	if cfg.Display != 1 {
		t.Errorf("Display = %d, want 1", cfg.Display)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAPTURE_INTERVAL", "not-a-number")
	t.Setenv("MAX_SHOTS", "many")

	cfg := Load()

	if cfg.IntervalSeconds != 5.0 {
		t.Errorf("IntervalSeconds = %v, want default on parse failure", cfg.IntervalSeconds)
	}
	if cfg.MaxShots != 20 {
		t.Errorf("MaxShots = %d, want default on parse failure", cfg.MaxShots)
	}
}

func TestSeed(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	seed := cfg.Seed()
	if seed.IntervalSeconds != cfg.IntervalSeconds || seed.SaveDir != cfg.SaveDir ||
		seed.DuplicateThreshold != cfg.DuplicateThreshold {
		t.Errorf("Seed() = %+v does not mirror config", seed)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.in}
		if got := c.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
