package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Port != 3000 || c.Environment != EnvDevelopment {
		t.Errorf("defaults: port=%d env=%s", c.Port, c.Environment)
	}
	if c.Throttle.MoveIntervalMillis != 80 || c.Throttle.AttackIntervalMillis != 400 {
		t.Errorf("throttle defaults: %+v", c.Throttle)
	}
	if c.Session.IdleTimeoutMinutes != 5 {
		t.Errorf("session defaults: %+v", c.Session)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if c.Port != 3000 {
		t.Errorf("port = %d, want default 3000", c.Port)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := []byte(`port: 8080
database_url: postgres://localhost/gloom
websocket:
  allowed_origins:
    - https://play.example.com
session:
  idle_timeout_minutes: 10
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Port != 8080 || c.DatabaseURL != "postgres://localhost/gloom" {
		t.Errorf("loaded: port=%d url=%s", c.Port, c.DatabaseURL)
	}
	if c.Session.IdleTimeoutMinutes != 10 {
		t.Errorf("idle timeout = %d, want 10", c.Session.IdleTimeoutMinutes)
	}
	// Unset keys keep their defaults.
	if c.Throttle.MaxPending != 5 {
		t.Errorf("max_pending = %d, want default 5", c.Throttle.MaxPending)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "data/other.db")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Port != 9000 || c.DatabaseURL != "data/other.db" {
		t.Errorf("env overrides: port=%d url=%s", c.Port, c.DatabaseURL)
	}
	if len(c.WebSocket.AllowedOrigins) != 2 || c.WebSocket.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", c.WebSocket.AllowedOrigins)
	}
}

func TestIsOriginAllowed(t *testing.T) {
	sameOrigin := WebSocketConfig{}
	if !sameOrigin.IsOriginAllowed("https://game.example.com", "game.example.com") {
		t.Error("same-origin request rejected")
	}
	if sameOrigin.IsOriginAllowed("https://evil.example.com", "game.example.com") {
		t.Error("cross-origin request allowed under same-origin policy")
	}
	if !sameOrigin.IsOriginAllowed("", "game.example.com") {
		t.Error("empty origin (non-browser client) rejected")
	}

	wildcard := WebSocketConfig{AllowedOrigins: []string{"*"}}
	if !wildcard.IsOriginAllowed("https://anywhere.example", "game.example.com") {
		t.Error("wildcard rejected an origin")
	}

	list := WebSocketConfig{AllowedOrigins: []string{"https://play.example.com"}}
	if !list.IsOriginAllowed("https://play.example.com", "game.example.com") {
		t.Error("listed origin rejected")
	}
	if list.IsOriginAllowed("https://other.example.com", "game.example.com") {
		t.Error("unlisted origin allowed")
	}
}
