package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/yndnr/supertracker-go/internal/bootstrap"
	"github.com/yndnr/supertracker-go/internal/config"
	"github.com/yndnr/supertracker-go/internal/infra/buildinfo"
	"github.com/yndnr/supertracker-go/internal/infra/confloader"
	"github.com/yndnr/supertracker-go/internal/infra/shutdown"
	"github.com/yndnr/supertracker-go/internal/server/httpserver"
	"github.com/yndnr/supertracker-go/internal/server/localserver"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
	"github.com/yndnr/supertracker-go/internal/telemetry/metric"
)

// shutdownTimeout bounds all shutdown hooks together.
const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, nil); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the agent and blocks until a signal arrives or ctx is done.
// ready, when set, receives the HTTP listener's address once it accepts
// connections.
func run(ctx context.Context, args []string, stdout io.Writer, ready func(net.Addr)) error {
	flags := flag.NewFlagSet("supertracker-agent", flag.ContinueOnError)
	var (
		configFile  = flags.String("config", "", "Path to configuration file")
		addr        = flags.String("addr", "", "Listen address (overrides agent.addr)")
		showVersion = flags.Bool("version", false, "Show version information")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "supertracker-agent %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Agent.Addr = *addr
	}

	rt, err := bootstrap.Open(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	log := rt.Log

	log.Info("starting supertracker-agent",
		"version", buildinfo.Version,
		"backend", cfg.Backend.Kind,
		"pending", rt.Queue.Len())

	if err := registerMetrics(rt); err != nil {
		rt.Close()
		return fmt.Errorf("register metrics: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Agent.Addr)
	if err != nil {
		rt.Close()
		return fmt.Errorf("listen %s: %w", cfg.Agent.Addr, err)
	}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Queue:   rt.Queue,
		Probe:   probe(rt),
		Metrics: rt.Metrics.Handler(),
		Logger:  log.With("component", "http"),
	})
	httpServer := httpserver.New(ln.Addr().String(), router)

	var local *localserver.Server
	var localLn net.Listener
	if cfg.Agent.Socket != "" {
		local = localserver.New(cfg.Agent.Socket, router)
		if localLn, err = local.Listen(); err != nil {
			ln.Close()
			rt.Close()
			return fmt.Errorf("listen %s: %w", cfg.Agent.Socket, err)
		}
	}

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)

	// Hooks run in reverse order: HTTP first, the runtime last.
	shutdownHandler.OnShutdown("runtime", func(context.Context) error {
		log.Info("closing runtime", "pending", rt.Queue.Len())
		return rt.Close()
	})

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		rt.Monitor.Run(monitorCtx)
	}()
	shutdownHandler.OnShutdown("monitor", func(ctx context.Context) error {
		stopMonitor()
		select {
		case <-monitorDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if watcher := watchConfig(*configFile, log); watcher != nil {
		shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if local != nil {
		shutdownHandler.OnShutdown("local socket", func(ctx context.Context) error {
			return local.Shutdown(ctx)
		})
		go func() {
			log.Info("local socket listening", "path", local.Path())
			if err := local.Serve(localLn); err != nil {
				log.Error("local socket error", "error", err)
				shutdownHandler.Trigger()
			}
		}()
	}

	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()
	if ready != nil {
		ready(ln.Addr())
	}

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("agent stopped gracefully")
	return nil
}

// registerMetrics exposes queue depth and, when the queue is durable,
// badger's size on the runtime's registry.
func registerMetrics(rt *bootstrap.App) error {
	reg := rt.Metrics.Registerer()
	if err := reg.Register(metric.NewQueueCollector(rt.Queue)); err != nil {
		return err
	}
	if rt.KV != nil {
		rt.KV.RegisterMetrics(reg)
	}
	return nil
}

// probe returns the flush endpoint's probe, or nil when no backend is
// configured.
func probe(rt *bootstrap.App) func(context.Context) bool {
	if rt.Backend == nil {
		return nil
	}
	return rt.Probe
}

// watchConfig reloads the log level whenever the configuration file
// changes. It returns nil when there is no file to watch.
func watchConfig(path string, log logger.Logger) *confloader.Watcher {
	if path == "" {
		path = config.DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if path == "" {
		return nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Watch(path); err != nil {
		log.Warn("cannot watch config file", "path", path, "error", err)
		watcher.Stop()
		return nil
	}
	watcher.OnChange(func(changed string) {
		cfg, err := config.Load(changed)
		if err != nil {
			log.Warn("ignoring invalid configuration", "path", changed, "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("ignoring log level", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	watcher.StartAsync()
	return watcher
}
