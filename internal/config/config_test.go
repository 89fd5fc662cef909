package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.Kind != DefaultBackendKind {
		t.Errorf("Backend.Kind = %q, want %q", cfg.Backend.Kind, DefaultBackendKind)
	}
	if cfg.Backend.Timeout != DefaultBackendTimeout {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, DefaultBackendTimeout)
	}
	if cfg.Sync.QueueCapacity != 100 {
		t.Errorf("Sync.QueueCapacity = %d, want 100", cfg.Sync.QueueCapacity)
	}
	if cfg.Sync.MaxReplayAttempts != 1 {
		t.Errorf("Sync.MaxReplayAttempts = %d, want 1", cfg.Sync.MaxReplayAttempts)
	}
	if cfg.Sync.DataDir != "" {
		t.Errorf("Sync.DataDir = %q, want empty", cfg.Sync.DataDir)
	}
	if cfg.Locale != "es" {
		t.Errorf("Locale = %q, want es", cfg.Locale)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad backend kind", func(c *Config) { c.Backend.Kind = "grpc" }, "backend.kind"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"url without key", func(c *Config) { c.Backend.URL = "https://x.supabase.co" }, "backend.api_key"},
		{"zero capacity", func(c *Config) { c.Sync.QueueCapacity = 0 }, "sync.queue_capacity"},
		{"zero attempts", func(c *Config) { c.Sync.MaxReplayAttempts = 0 }, "sync.max_replay_attempts"},
		{"negative rate", func(c *Config) { c.Sync.ReplayRate = -1 }, "sync.replay_rate"},
		{"zero probe interval", func(c *Config) { c.Sync.ProbeInterval = 0 }, "sync.probe_interval"},
		{"short key", func(c *Config) { c.Sync.EncryptionKey = "abcd" }, "sync.encryption_key"},
		{"non-hex key", func(c *Config) { c.Sync.EncryptionKey = strings.Repeat("z", 64) }, "sync.encryption_key"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"no agent addr", func(c *Config) { c.Agent.Addr = "" }, "agent.addr"},
		{"bad locale", func(c *Config) { c.Locale = "fr" }, "locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Sync.QueueCapacity = 0
	cfg.Log.Format = "xml"

	err := Verify(cfg)
	if err == nil {
		t.Fatal("Verify() = nil")
	}
	for _, want := range []string{"sync.queue_capacity", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Verify() = %v, missing %q", err, want)
		}
	}
}

func TestVerify_ValidEncryptionKey(t *testing.T) {
	cfg := Default()
	cfg.Sync.EncryptionKey = strings.Repeat("ab", 32)
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Backend.APIKey = "eyJhbGciOiJIUzI1NiJ9.anon"
	cfg.Sync.EncryptionKey = strings.Repeat("ab", 32)

	sanitized := Sanitize(cfg)

	if cfg.Backend.APIKey != "eyJhbGciOiJIUzI1NiJ9.anon" {
		t.Error("original config should not be modified")
	}
	if sanitized.Backend.APIKey == cfg.Backend.APIKey {
		t.Error("API key not masked")
	}
	if len(sanitized.Sync.EncryptionKey) != len(cfg.Sync.EncryptionKey) {
		t.Errorf("masked key length = %d, want %d", len(sanitized.Sync.EncryptionKey), len(cfg.Sync.EncryptionKey))
	}
	if !strings.HasPrefix(sanitized.Backend.APIKey, "ey") || !strings.HasSuffix(sanitized.Backend.APIKey, "on") {
		t.Errorf("masked key = %q, want first and last two characters kept", sanitized.Backend.APIKey)
	}
}

func TestMaskSecret_Short(t *testing.T) {
	if got := maskSecret("abc"); got != "****" {
		t.Errorf("maskSecret(abc) = %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend:
  kind: memory
  timeout: 5s
sync:
  queue_capacity: 20
  probe_interval: 1s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUPERTRACKER_SYNC_MAX_REPLAY_ATTEMPTS", "3")
	t.Setenv("SUPERTRACKER_LOCALE", "en")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.Kind != BackendMemory {
		t.Errorf("Backend.Kind = %q", cfg.Backend.Kind)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Sync.QueueCapacity != 20 {
		t.Errorf("Sync.QueueCapacity = %d", cfg.Sync.QueueCapacity)
	}
	if cfg.Sync.MaxReplayAttempts != 3 {
		t.Errorf("Sync.MaxReplayAttempts = %d, want 3 from env", cfg.Sync.MaxReplayAttempts)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Locale != "en" {
		t.Errorf("Locale = %q, want en", cfg.Locale)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  queue_capacity: 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "sync.queue_capacity") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing explicit file should fail")
	}
}

func TestValues(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "https://demo.supabase.co"

	values, err := Values(Sanitize(cfg))
	if err != nil {
		t.Fatalf("Values: %v", err)
	}

	tests := map[string]any{
		"backend.url":         "https://demo.supabase.co",
		"backend.timeout":     "30s",
		"sync.queue_capacity": DefaultQueueCapacity,
		"sync.probe_interval": "5s",
		"log.level":           DefaultLogLevel,
		"locale":              DefaultLocale,
	}
	for key, want := range tests {
		if got := values[key]; got != want {
			t.Errorf("values[%q] = %v (%T), want %v", key, got, got, want)
		}
	}
}
