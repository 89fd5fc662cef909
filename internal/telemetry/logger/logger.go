package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the structured logger handed to SuperTracker components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config selects the level, encoding and destination of a logger.
type Config struct {
	Level  string    // debug, info, warn or error; empty means info
	Format string    // json or text; empty means json
	Output io.Writer // nil means os.Stderr
}

var (
	ErrUnknownLevel  = errors.New("logger: unknown level")
	ErrUnknownFormat = errors.New("logger: unknown format")
)

// level is shared by every logger this package builds, so a config
// reload retunes them all through SetLevel.
var level slog.LevelVar

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	lvl, ok := levelNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownLevel, name)
	}
	return lvl, nil
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

func handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: &level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
}

// New builds a logger and sets the shared level to cfg.Level.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		h = slog.NewJSONHandler(out, handlerOptions())
	case "text", "console":
		h = slog.NewTextHandler(out, handlerOptions())
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, cfg.Format)
	}

	level.Set(lvl)
	return slogLogger{slog.New(h)}, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return slogLogger{slog.New(slog.DiscardHandler)}
}

// Slog returns the slog.Logger behind l, for the storage engine and
// other libraries that take one. Foreign Logger implementations get
// slog.Default().
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(slogLogger); ok {
		return sl.Logger
	}
	return slog.Default()
}

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current shared level name.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

var (
	stderrLogger Logger = slogLogger{slog.New(slog.NewTextHandler(os.Stderr, handlerOptions()))}
	current      atomic.Pointer[Logger]
)

// SetDefault makes l the logger returned by Default.
func SetDefault(l Logger) {
	if l != nil {
		current.Store(&l)
	}
}

// Default returns the process logger: the one passed to SetDefault, or a
// text logger on stderr.
func Default() Logger {
	if l := current.Load(); l != nil {
		return *l
	}
	return stderrLogger
}
