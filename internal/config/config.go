// Package config loads application configuration from the environment.
//
// A .env file in the working directory is loaded first if present (local
// development convenience); real deployments set the variables in the
// runtime. Only JWT_SECRET and ADMIN_PASSWORD_HASH are required — everything
// else has a sensible default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable keys.
const (
	KeyPort          = "PORT"
	KeyDBPath        = "DB_PATH"
	KeyRemoteBaseURL = "REMOTE_BASE_URL"
	KeyRemoteTimeout = "REMOTE_TIMEOUT"
	KeyJWTSecret     = "JWT_SECRET"
	KeyAdminHash     = "ADMIN_PASSWORD_HASH"
)

// Defaults for optional settings.
const (
	DefaultPort          = 8080
	DefaultDBPath        = "data/loyalty.db"
	DefaultRemoteTimeout = 10 * time.Second
)

// Config holds everything main needs to wire the application.
type Config struct {
	Port          int
	DBPath        string
	RemoteBaseURL string // empty → reconciliation is skipped (always offline)
	RemoteTimeout time.Duration
	JWTSecret     string
	AdminHash     string // bcrypt hash of the staff password
}

// Load reads configuration from the environment, with .env as a fallback
// source for unset variables.
func Load() (Config, error) {
	// godotenv.Load only fills variables that aren't already set, and a
	// missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Port:          DefaultPort,
		DBPath:        DefaultDBPath,
		RemoteTimeout: DefaultRemoteTimeout,
		RemoteBaseURL: os.Getenv(KeyRemoteBaseURL),
		JWTSecret:     os.Getenv(KeyJWTSecret),
		AdminHash:     os.Getenv(KeyAdminHash),
	}

	if v := os.Getenv(KeyPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid %s %q: %w", KeyPort, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(KeyDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(KeyRemoteTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid %s %q: %w", KeyRemoteTimeout, v, err)
		}
		cfg.RemoteTimeout = d
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: %s is required", KeyJWTSecret)
	}
	if cfg.AdminHash == "" {
		return Config{}, fmt.Errorf("config: %s is required", KeyAdminHash)
	}

	return cfg, nil
}
