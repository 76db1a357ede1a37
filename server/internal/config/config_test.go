package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, "server: {}\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Server
	if s.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", s.HTTPPort, DefaultHTTPPort)
	}
	if s.Session.TTL != DefaultSessionTTL {
		t.Errorf("session.ttl: got %v, want %v", s.Session.TTL, DefaultSessionTTL)
	}
	if s.Breathing.Cycles != DefaultBreathingCycles {
		t.Errorf("breathing.cycles: got %d, want %d", s.Breathing.Cycles, DefaultBreathingCycles)
	}
	if s.Breathing.Inhale != DefaultInhale || s.Breathing.Exhale != DefaultExhale {
		t.Errorf("breathing durations: got %v/%v", s.Breathing.Inhale, s.Breathing.Exhale)
	}
	if s.SlogLevel() != slog.LevelInfo {
		t.Errorf("log level: got %v, want info", s.SlogLevel())
	}
}

func TestLoad_FullServer(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  log_level: debug
  auth:
    mode: apikey
    key_env: MY_KEY
    header: x-watch-key
  session:
    ttl: 10m
  breathing:
    cycles: 5
    inhale: 3s
    exhale: 6s
  websocket:
    ping_period: 20s
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Server
	if s.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", s.HTTPPort)
	}
	if s.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", s.SlogLevel())
	}
	if s.Auth.EffectiveHeader() != "x-watch-key" {
		t.Errorf("header: got %q, want x-watch-key", s.Auth.EffectiveHeader())
	}
	if s.Session.TTL != 10*time.Minute {
		t.Errorf("session.ttl: got %v, want 10m", s.Session.TTL)
	}
	if s.Breathing.Cycles != 5 || s.Breathing.Inhale != 3*time.Second || s.Breathing.Exhale != 6*time.Second {
		t.Errorf("breathing: got %+v", s.Breathing)
	}
	if s.WebSocket.PingPeriod != 20*time.Second {
		t.Errorf("ping_period: got %v, want 20s", s.WebSocket.PingPeriod)
	}
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: K
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("TEST_SERVER_KEY", "supersecret")
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_SERVER_KEY
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown auth mode", "server:\n  auth:\n    mode: oauth2\n"},
		{"apikey without key_env", "server:\n  auth:\n    mode: apikey\n"},
		{"port out of range", "server:\n  http_port: 70000\n"},
		{"unknown log level", "server:\n  log_level: loud\n"},
		{"zero cycles", "server:\n  breathing:\n    cycles: 0\n"},
		{"negative inhale", "server:\n  breathing:\n    inhale: -1s\n"},
		{"zero ttl", "server:\n  session:\n    ttl: 0s\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "server:\n  breathing:\n    cycles: 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(p, []byte("server:\n  breathing:\n    cycles: 7\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	// A truncating write can surface as several events; wait for the final content.
	deadline := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-got:
			reloaded = c.Server.Breathing.Cycles == 7
		case <-deadline:
			t.Fatal("timed out waiting for reload with cycles 7")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
