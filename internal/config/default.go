package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	BackendREST   = "rest"
	BackendMemory = "memory"

	DefaultBackendKind    = BackendREST
	DefaultBackendTimeout = 30 * time.Second

	DefaultQueueCapacity     = 100
	DefaultMaxReplayAttempts = 1
	DefaultProbeInterval     = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultAgentAddr = "127.0.0.1:9464"
	DefaultLocale    = "es"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendSection{
			Kind:    DefaultBackendKind,
			Timeout: DefaultBackendTimeout,
		},
		Sync: SyncSection{
			QueueCapacity:     DefaultQueueCapacity,
			MaxReplayAttempts: DefaultMaxReplayAttempts,
			ProbeInterval:     DefaultProbeInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Agent: AgentSection{
			Addr: DefaultAgentAddr,
		},
		Locale: DefaultLocale,
	}
}

// DefaultDataDir returns the per-user directory for persisted state.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "supertracker"), nil
}

// DefaultConfigPath returns the per-user configuration file path.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "supertracker", "config.yaml")
}
