package config

import (
	"testing"
	"time"
)

// setRequired sets the two mandatory variables so individual tests only
// manipulate what they're checking. t.Setenv restores the old values itself.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(KeyJWTSecret, "test-secret-at-least-16-chars!!")
	t.Setenv(KeyAdminHash, "$2a$04$fakehashfortests")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyPort, "")
	t.Setenv(KeyDBPath, "")
	t.Setenv(KeyRemoteTimeout, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.RemoteTimeout != DefaultRemoteTimeout {
		t.Errorf("RemoteTimeout = %v, want %v", cfg.RemoteTimeout, DefaultRemoteTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyPort, "9090")
	t.Setenv(KeyDBPath, "/tmp/test.db")
	t.Setenv(KeyRemoteBaseURL, "https://club.example.com/data")
	t.Setenv(KeyRemoteTimeout, "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.RemoteBaseURL != "https://club.example.com/data" {
		t.Errorf("RemoteBaseURL = %q", cfg.RemoteBaseURL)
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Errorf("RemoteTimeout = %v", cfg.RemoteTimeout)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv(KeyPort, "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric port")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv(KeyJWTSecret, "")
	t.Setenv(KeyAdminHash, "$2a$04$fakehashfortests")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should require JWT_SECRET")
	}
}
