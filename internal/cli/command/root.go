package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supertracker-go/internal/bootstrap"
	"github.com/yndnr/supertracker-go/internal/cli/output"
	"github.com/yndnr/supertracker-go/internal/config"
	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/core/service"
	"github.com/yndnr/supertracker-go/internal/infra/buildinfo"
)

// Metadata keys.
const (
	metaConfig  = "config"
	metaRuntime = "runtime"
	metaOwned   = "runtimeOwned"
)

// commandTimeout bounds a single command's backend calls.
const commandTimeout = 60 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "supertracker-cli",
		Usage:   "SuperTracker data access from the command line",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AuthCommand(),
			DataCommand(),
			SessionCommand(),
			RoutineCommand(),
			QueueCommand(),
			WatchCommand(),
			DemoCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: before,
		After:  after,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default: user config dir)",
			EnvVars: []string{"SUPERTRACKER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Backend: rest, memory (overrides backend.kind)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Do not truncate table cells",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	Backend string
	Output  output.Format
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return &GlobalFlags{
		Config:  c.String("config"),
		Backend: c.String("backend"),
		Output:  format,
		Wide:    c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}, nil
}

// before loads the configuration. The runtime itself is opened lazily by
// the commands that need it.
func before(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	if _, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return nil
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	if flags.Backend != "" {
		cfg.Backend.Kind = flags.Backend
		if err := config.Verify(cfg); err != nil {
			return err
		}
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// after closes a runtime opened by a command, waiting for any flush it
// started.
func after(c *cli.Context) error {
	if owned, _ := c.App.Metadata[metaOwned].(bool); !owned {
		return nil
	}
	rt, ok := c.App.Metadata[metaRuntime].(*bootstrap.App)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, metaRuntime)
	delete(c.App.Metadata, metaOwned)
	return rt.Close()
}

// GetConfig returns the configuration loaded by the Before hook.
func GetConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// SetRuntime installs rt as the app's runtime. The app does not close it.
func SetRuntime(app *cli.App, rt *bootstrap.App) {
	if app.Metadata == nil {
		app.Metadata = make(map[string]any)
	}
	app.Metadata[metaRuntime] = rt
	app.Metadata[metaConfig] = rt.Config
}

// EnsureRuntime returns the runtime, opening it and probing the backend on
// first use.
func EnsureRuntime(c *cli.Context) (*bootstrap.App, error) {
	if rt, ok := c.App.Metadata[metaRuntime].(*bootstrap.App); ok {
		return rt, nil
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}

	rt, err := bootstrap.Open(c.Context, GetConfig(c), bootstrap.Options{
		LogOutput: c.App.ErrWriter,
		Verbose:   flags.Verbose,
	})
	if err != nil {
		return nil, err
	}
	rt.Probe(c.Context)

	c.App.Metadata[metaRuntime] = rt
	c.App.Metadata[metaOwned] = true
	return rt, nil
}

// ensureTracker returns the runtime's Tracker.
func ensureTracker(c *cli.Context) (*service.Tracker, error) {
	rt, err := EnsureRuntime(c)
	if err != nil {
		return nil, err
	}
	return rt.Tracker, nil
}

// commandContext bounds a command and cancels it on SIGINT.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// queued reports a write that was accepted offline. It returns nil for
// such errors and err otherwise.
func queued(c *cli.Context, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Code == domain.ErrOffline.Code && de.Details == domain.DetailsQueued {
		fmt.Fprintln(c.App.ErrWriter, domain.UserMessage(err, GetConfig(c).Locale))
		return nil
	}
	return err
}

// PrintError prints a user-facing error to w in the configured locale.
func PrintError(app *cli.App, w io.Writer, err error) {
	locale := domain.DefaultLang
	if cfg, ok := app.Metadata[metaConfig].(*config.Config); ok && cfg.Locale != "" {
		locale = cfg.Locale
	}
	fmt.Fprintf(w, "error: %s\n", domain.UserMessage(err, locale))
}
