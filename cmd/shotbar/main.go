// Shotbar - automatic interval screenshots with duplicate-based auto stop
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cassaicus/Shotbar/internal/config"
	"github.com/cassaicus/Shotbar/internal/dedup"
	"github.com/cassaicus/Shotbar/internal/notify"
	"github.com/cassaicus/Shotbar/internal/screen"
	"github.com/cassaicus/Shotbar/internal/server"
	"github.com/cassaicus/Shotbar/internal/session"
	"github.com/cassaicus/Shotbar/internal/settings"
	"github.com/cassaicus/Shotbar/internal/storage"
	"github.com/cassaicus/Shotbar/internal/tray"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	store, err := settings.Open(cfg.DBPath, cfg.Seed())
	if err != nil {
		slog.Error("failed to open settings store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	prefs := store.Get()

	detector := dedup.New(&dedup.PerceptionHasher{})
	detector.SetThreshold(prefs.DuplicateThreshold)

	mgr := session.New(
		screen.NewDisplay(prefs.Display),
		detector,
		store,
		storage.NewSaver(),
		notify.NewPlayer(),
	)

	t := tray.New(prefs.DetectDuplicates)

	store.OnChange(func(s settings.Settings) {
		mgr.ApplySettings(s)
		t.SetDetectDuplicates(s.DetectDuplicates)
	})

	srv := server.New(mgr, store)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("shotbar server starting", "http", cfg.HTTPAddr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Mirror session events into the tray menu.
	go func() {
		for evt := range mgr.Subscribe() {
			switch evt.Type {
			case session.EventStarted:
				t.SetRunning(true)
				t.SetShotCount(0)
			case session.EventShot:
				t.SetShotCount(evt.Count)
			case session.EventStopped:
				t.SetRunning(false)
			}
		}
	}()

	t.OnStartStop(func(start bool) {
		if start {
			if err := mgr.Start(context.Background()); err != nil {
				slog.Error("failed to start session", "error", err)
			}
			return
		}
		mgr.Stop()
	})
	t.OnDetectToggle(func(enabled bool) {
		s := store.Get()
		s.DetectDuplicates = enabled
		if err := store.Update(s); err != nil {
			slog.Error("failed to save detect-duplicates preference", "error", err)
		}
	})
	t.OnSettings(func() {
		openBrowser("http://" + cfg.HTTPAddr + "/api/settings")
	})
	t.OnQuit(func() {
		slog.Info("quit requested from tray")
	})

	// Quit the tray on SIGINT/SIGTERM so Run returns and shutdown proceeds.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		t.Quit()
	}()

	// Blocks until quit; must stay on the main goroutine for macOS.
	t.Run()

	slog.Info("shutting down...")
	mgr.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	slog.Info("shutdown complete")
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("failed to open browser", "url", url, "error", err)
	}
}
