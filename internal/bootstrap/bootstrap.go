// Package bootstrap assembles the tracker object graph from configuration.
//
// Both supertracker-cli and supertracker-agent build their runtime through
// Open: logger, metrics, durable store, backend, offline queue,
// connectivity monitor and Tracker, wired in that order.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yndnr/supertracker-go/internal/backend"
	"github.com/yndnr/supertracker-go/internal/backend/memory"
	"github.com/yndnr/supertracker-go/internal/backend/rest"
	"github.com/yndnr/supertracker-go/internal/config"
	"github.com/yndnr/supertracker-go/internal/core/service"
	"github.com/yndnr/supertracker-go/internal/infra/tlsroots"
	"github.com/yndnr/supertracker-go/internal/netwatch"
	"github.com/yndnr/supertracker-go/internal/storage"
	"github.com/yndnr/supertracker-go/internal/syncqueue"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
	"github.com/yndnr/supertracker-go/internal/telemetry/metric"
	"github.com/yndnr/supertracker-go/pkg/crypto/adaptive"
)

// Options tunes Open.
type Options struct {
	// LogOutput receives log lines. Default: os.Stderr.
	LogOutput io.Writer

	// Verbose forces the debug log level.
	Verbose bool

	// Metrics records queue and backend activity. Default: a new registry.
	Metrics *metric.Registry

	// Backend replaces the configured backend. Used by tests and the demo.
	Backend backend.Backend
}

// App is a fully wired runtime.
type App struct {
	Config  *config.Config
	Log     logger.Logger
	Metrics *metric.Registry

	Backend backend.Backend
	KV      *storage.BadgerEngine
	Store   *storage.QueueStore
	Queue   *syncqueue.Manager
	Monitor *netwatch.Monitor
	Tracker *service.Tracker
}

// Open builds an App. Every component is created but nothing probes the
// backend yet; call Probe or run the Monitor.
func Open(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{Config: cfg, Metrics: opts.Metrics}
	if a.Metrics == nil {
		a.Metrics = metric.NewRegistry()
	}

	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.Log, err = initLogger(cfg, opts); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err = a.initStore(cfg); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	a.Backend = opts.Backend
	if a.Backend == nil {
		if a.Backend, err = a.initBackend(ctx, cfg); err != nil {
			return nil, fmt.Errorf("init backend: %w", err)
		}
	}

	a.Monitor = netwatch.New(probeFor(a.Backend), a.setOnline,
		netwatch.WithInterval(cfg.Sync.ProbeInterval),
		netwatch.WithLogger(a.Log),
	)

	qopts := []syncqueue.Option{
		syncqueue.WithLogger(a.Log),
		syncqueue.WithMetrics(a.Metrics),
		syncqueue.WithInitialOnline(false),
		syncqueue.WithOfflineHook(a.Monitor.Invalidate),
	}
	if a.Store != nil {
		qopts = append(qopts, syncqueue.WithStore(a.Store))
	}
	a.Queue, err = syncqueue.NewManager(syncqueue.Config{
		Capacity:          cfg.Sync.QueueCapacity,
		MaxReplayAttempts: cfg.Sync.MaxReplayAttempts,
		ReplayRate:        cfg.Sync.ReplayRate,
	}, qopts...)
	if err != nil {
		return nil, fmt.Errorf("init queue: %w", err)
	}

	a.Tracker = service.New(a.Backend, a.Queue, service.WithLogger(a.Log))

	a.Log.Debug("runtime ready",
		"backend", cfg.Backend.Kind,
		"data_dir", cfg.Sync.DataDir,
		"pending", a.Queue.Len())
	return a, nil
}

// Probe checks connectivity once. Pending operations are flushed in the
// background when the backend is reachable; Close waits for that flush.
func (a *App) Probe(ctx context.Context) bool {
	return a.Monitor.Check(ctx)
}

// Close waits for background flushes and releases the store.
func (a *App) Close() error {
	if a.Queue != nil {
		a.Queue.Wait()
		a.Queue.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}

func (a *App) setOnline(online bool) {
	if a.Queue != nil {
		a.Queue.SetOnline(online)
	}
}

func initLogger(cfg *config.Config, opts Options) (logger.Logger, error) {
	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log, err := logger.New(logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initStore opens the durable store. The rest backend always persists,
// under the default data directory unless one is configured; the memory
// backend persists only when sync.data_dir is set.
func (a *App) initStore(cfg *config.Config) error {
	dir := cfg.Sync.DataDir
	if dir == "" && cfg.Backend.Kind == config.BackendREST {
		d, err := config.DefaultDataDir()
		if err != nil {
			return err
		}
		dir = d
	}
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var storeOpts []storage.QueueStoreOption
	if cfg.Sync.EncryptionKey != "" {
		cipher, err := adaptive.FromHex(cfg.Sync.EncryptionKey)
		if err != nil {
			return fmt.Errorf("encryption key: %w", err)
		}
		storeOpts = append(storeOpts, storage.WithCipher(cipher))
	}

	kv, err := storage.NewBadgerEngine(storage.DefaultKVConfig(filepath.Join(dir, "queue")), logger.Slog(a.Log))
	if err != nil {
		return err
	}
	a.KV = kv
	a.Store = storage.NewQueueStore(kv, storeOpts...)
	return nil
}

func (a *App) initBackend(ctx context.Context, cfg *config.Config) (backend.Backend, error) {
	switch cfg.Backend.Kind {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendREST, "":
		if cfg.Backend.URL == "" || cfg.Backend.APIKey == "" {
			// Calls fail with ErrNotConfigured.
			a.Log.Warn("backend not configured; set backend.url and backend.api_key")
			return nil, nil
		}
		hc, err := tlsroots.HTTPClient(cfg.Backend.TLSCAFile)
		if err != nil {
			return nil, err
		}
		ropts := []rest.Option{
			rest.WithHTTPClient(hc),
			rest.WithLogger(a.Log),
			rest.WithMetrics(a.Metrics),
		}
		if a.Store != nil {
			ropts = append(ropts, rest.WithSessionStore(a.Store))
		}
		client, err := rest.New(rest.Config{
			URL:         cfg.Backend.URL,
			APIKey:      cfg.Backend.APIKey,
			Timeout:     cfg.Backend.Timeout,
			RealtimeURL: cfg.Backend.RealtimeURL,
		}, ropts...)
		if err != nil {
			return nil, err
		}
		if err := client.Restore(ctx); err != nil {
			a.Log.Warn("restore session failed", "error", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}

// probeFor returns a reachability probe for b. Backends that cannot be
// pinged are assumed reachable; an unconfigured backend never is.
func probeFor(b backend.Backend) netwatch.Probe {
	if b == nil {
		return func(context.Context) error { return errNoBackend }
	}
	if p, ok := b.(backend.Pinger); ok {
		return p.Ping
	}
	return func(context.Context) error { return nil }
}

var errNoBackend = errors.New("backend not configured")
