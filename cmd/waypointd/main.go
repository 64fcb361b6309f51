// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// waypointd runs a headless Waypoint session: the local entity store,
// best-effort remote reconciliation, the notification service, and
// the live fleet feed. Delivery channels are logged to stdout; a real
// front end would replace them over IPC.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/waypoint-travel/waypoint/lib/config"
	"github.com/waypoint-travel/waypoint/lib/process"
	"github.com/waypoint-travel/waypoint/lib/version"
	"github.com/waypoint-travel/waypoint/remote"
	"github.com/waypoint-travel/waypoint/session"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the configuration file (default: $"+config.EnvVar+")")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		version.Print("waypointd")
		return nil
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backend remote.Store
	if cfg.Remote.BaseURL != "" {
		httpStore, err := remote.NewHTTPStore(remote.HTTPConfig{
			BaseURL:    cfg.Remote.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Remote.Timeout},
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		backend = httpStore
	}

	sess, err := session.New(session.Config{
		OwnerID:          cfg.Owner,
		Logger:           logger,
		StatePath:        filepath.Join(cfg.StateDir, "waypoint.db"),
		Remote:           backend,
		PreferencesPath:  filepath.Join(cfg.StateDir, "preferences.jsonc"),
		Toast:            &logToast{logger: logger},
		Audio:            &logAudio{logger: logger},
		System:           &logNotifier{logger: logger},
		TrackingInterval: cfg.Tracking.Interval,
		TrackingUnits:    cfg.Tracking.Units,
	})
	if err != nil {
		return err
	}

	if err := sess.Start(ctx); err != nil {
		return err
	}
	logger.Info("session running",
		"owner", cfg.Owner,
		"state_dir", cfg.StateDir,
		"remote", cfg.Remote.BaseURL != "",
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := sess.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
	return nil
}
