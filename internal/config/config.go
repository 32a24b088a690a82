// Package config handles process configuration
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cassaicus/Shotbar/internal/settings"
)

type Config struct {
	HTTPAddr string
	DBPath   string
	LogLevel string

	// Defaults used to seed the settings store on first run; afterwards the
	// persisted settings win.
	IntervalSeconds    float64
	MaxShots           int
	SaveDir            string
	DetectDuplicates   bool
	DuplicateThreshold float64
	ShutterSound       string
	EndSound           string
	Display            int
}

func Load() *Config {
	return &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", "127.0.0.1:8765"),
		DBPath:             getEnv("DB_PATH", filepath.Join(baseDir(), "shotbar.db")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		IntervalSeconds:    getEnvFloat("CAPTURE_INTERVAL", 5.0),
		MaxShots:           getEnvInt("MAX_SHOTS", 20),
		SaveDir:            getEnv("SAVE_DIR", defaultSaveDir()),
		DetectDuplicates:   getEnvBool("DETECT_DUPLICATES", true),
		DuplicateThreshold: getEnvFloat("DUPLICATE_THRESHOLD", 0.05),
		ShutterSound:       getEnv("SHUTTER_SOUND", "Tink"),
		EndSound:           getEnv("END_SOUND", "Glass"),
		Display:            getEnvInt("DISPLAY_INDEX", 0),
	}
}

// Seed returns the settings defaults for a fresh settings store.
func (c *Config) Seed() settings.Settings {
	return settings.Settings{
		IntervalSeconds:    c.IntervalSeconds,
		MaxShots:           c.MaxShots,
		SaveDir:            c.SaveDir,
		DetectDuplicates:   c.DetectDuplicates,
		DuplicateThreshold: c.DuplicateThreshold,
		ShutterSound:       c.ShutterSound,
		EndSound:           c.EndSound,
		Display:            c.Display,
	}
}

// SlogLevel parses the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".shotbar")
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shots"
	}
	return filepath.Join(home, "Pictures", "Shotbar")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
