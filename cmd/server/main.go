// Package main is the entry point for the loyalty-club server.
//
// main's job is deliberately small: configure logging, load config, create
// the data directory, and hand off to internal/server. All actual logic
// lives in imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/loyalty-club/internal/config"
	"github.com/sakif/loyalty-club/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the directory holding the database exists (like mkdir -p).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() reconciles with the remote snapshot, then blocks until the
	// server is shut down.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
