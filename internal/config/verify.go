package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *Config) error {
	var errs []error
	errs = append(errs, verifyBackend(&cfg.Backend)...)
	errs = append(errs, verifySync(&cfg.Sync)...)
	errs = append(errs, verifyLog(&cfg.Log)...)

	if cfg.Agent.Addr == "" {
		errs = append(errs, errors.New("agent.addr is required"))
	}
	switch cfg.Locale {
	case "es", "en":
	default:
		errs = append(errs, fmt.Errorf("locale must be es or en, got %q", cfg.Locale))
	}
	return errors.Join(errs...)
}

func verifyBackend(cfg *BackendSection) []error {
	var errs []error
	switch cfg.Kind {
	case BackendREST, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("backend.kind must be %s or %s, got %q", BackendREST, BackendMemory, cfg.Kind))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if cfg.URL != "" && cfg.APIKey == "" {
		errs = append(errs, errors.New("backend.api_key is required when backend.url is set"))
	}
	return errs
}

func verifySync(cfg *SyncSection) []error {
	var errs []error
	if cfg.QueueCapacity < 1 {
		errs = append(errs, errors.New("sync.queue_capacity must be at least 1"))
	}
	if cfg.MaxReplayAttempts < 1 {
		errs = append(errs, errors.New("sync.max_replay_attempts must be at least 1"))
	}
	if cfg.ReplayRate < 0 {
		errs = append(errs, errors.New("sync.replay_rate must not be negative"))
	}
	if cfg.ProbeInterval <= 0 {
		errs = append(errs, errors.New("sync.probe_interval must be positive"))
	}
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil || len(key) != 32 {
			errs = append(errs, errors.New("sync.encryption_key must be 64 hex characters"))
		}
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", cfg.Format))
	}
	return errs
}
