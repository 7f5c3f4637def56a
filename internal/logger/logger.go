package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"docvault/internal/config"
)

// TimeKey replaces slog's default "time" key so log lines keep the "ts" field
// used across the service.
const TimeKey = "ts"

// Options configures a handler built by NewHandler.
type Options struct {
	Level    slog.Level
	Format   string // "json" or "text"
	Location *time.Location
}

// NewHandler returns a slog handler writing to w. Timestamps are rendered in
// opts.Location (UTC when nil) as RFC3339Nano under TimeKey.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ho := &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(TimeKey, a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	}
	if opts.Format == "text" {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(w, opts))
}

// Init builds the process logger from cfg, installs it as the slog default and
// returns it. When a Sentry DSN is configured, error records are also sent to
// Sentry through a fan-out handler.
func Init(cfg config.LogConfig, loc *time.Location) *slog.Logger {
	handlers := []slog.Handler{NewHandler(os.Stdout, Options{
		Level:    ParseLevel(cfg.Level),
		Format:   cfg.Format,
		Location: loc,
	})}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Flush waits for buffered Sentry events. It is a no-op when Sentry is not initialised.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// ParseLevel maps a textual level to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadLocation resolves a time zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
