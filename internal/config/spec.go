package config

import "time"

// Config is the root configuration.
type Config struct {
	Backend BackendSection `koanf:"backend"`
	Sync    SyncSection    `koanf:"sync"`
	Log     LogSection     `koanf:"log"`
	Agent   AgentSection   `koanf:"agent"`

	// Locale selects the language of user-facing error messages (es, en).
	Locale string `koanf:"locale"`
}

// BackendSection configures the hosted backend.
type BackendSection struct {
	// Kind selects the implementation: "rest" or "memory".
	Kind string `koanf:"kind"`

	// URL is the project URL, e.g. https://xyz.supabase.co.
	URL string `koanf:"url"`

	// APIKey is the project's anonymous API key.
	APIKey string `koanf:"api_key"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RealtimeURL overrides the websocket endpoint derived from URL.
	RealtimeURL string `koanf:"realtime_url"`

	// TLSCAFile adds a PEM CA bundle to the system roots.
	TLSCAFile string `koanf:"tls_ca_file"`
}

// SyncSection configures the offline queue.
type SyncSection struct {
	QueueCapacity     int           `koanf:"queue_capacity"`
	MaxReplayAttempts int           `koanf:"max_replay_attempts"`
	ReplayRate        float64       `koanf:"replay_rate"`
	ProbeInterval     time.Duration `koanf:"probe_interval"`

	// DataDir holds the durable queue and the signed-in session.
	// Empty keeps both in memory.
	DataDir string `koanf:"data_dir"`

	// EncryptionKey is a 64-character hex key. When set, persisted
	// values are encrypted at rest.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AgentSection configures supertracker-agent.
type AgentSection struct {
	// Addr serves /metrics and /healthz.
	Addr string `koanf:"addr"`

	// Socket, when set, also serves the agent API on a Unix socket.
	Socket string `koanf:"socket"`
}
