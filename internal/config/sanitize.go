package config

import (
	"strings"
	"time"

	"github.com/yndnr/supertracker-go/internal/infra/confloader"
)

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	if sanitized.Backend.APIKey != "" {
		sanitized.Backend.APIKey = maskSecret(sanitized.Backend.APIKey)
	}
	if sanitized.Sync.EncryptionKey != "" {
		sanitized.Sync.EncryptionKey = maskSecret(sanitized.Sync.EncryptionKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// Values returns cfg as dotted keys (e.g. "sync.queue_capacity") with
// durations rendered as strings. Secrets are not masked; pass the result
// of Sanitize for display.
func Values(cfg *Config) (map[string]any, error) {
	loader := confloader.NewLoader()
	if err := loader.LoadDefaults(cfg); err != nil {
		return nil, err
	}
	out := loader.All()
	for k, v := range out {
		if d, ok := v.(time.Duration); ok {
			out[k] = d.String()
		}
	}
	return out, nil
}
