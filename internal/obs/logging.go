// Package obs provides the ambient observability stack: component-scoped
// structured logging, OpenTelemetry tracing, and Prometheus metrics. The
// Logger shape mirrors logging.Logger as used throughout the teacher's
// internal/infra/mcp package (component-tagged, Printf-style methods); the
// concrete implementation here sits on top of log/slog because the
// teacher's own logger implementation was not present in the retrieved
// pack, only its call sites and interface shape (see DESIGN.md).
package obs

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger is the leveled, component-scoped logging interface every package
// in this module depends on instead of talking to slog directly.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	With(key string, value any) Logger
}

type componentLogger struct {
	base      *slog.Logger
	component string
}

var root *slog.Logger

func init() {
	root = newSlogLogger(os.Getenv("DBGMCP_LOG_LEVEL"), os.Getenv("DBGMCP_LOG_FORMAT"))
}

func newSlogLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// NewComponentLogger returns a Logger tagged with the given component name,
// e.g. NewComponentLogger("SessionManager").
func NewComponentLogger(component string) Logger {
	return &componentLogger{base: root, component: component}
}

func (c *componentLogger) log(level slog.Level, format string, args ...any) {
	if !c.base.Enabled(context.Background(), level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = sprintf(format, args...)
	}
	c.base.Log(context.Background(), level, msg, "component", c.component)
}

func (c *componentLogger) Debug(format string, args ...any) { c.log(slog.LevelDebug, format, args...) }
func (c *componentLogger) Info(format string, args ...any)  { c.log(slog.LevelInfo, format, args...) }
func (c *componentLogger) Warn(format string, args ...any)  { c.log(slog.LevelWarn, format, args...) }
func (c *componentLogger) Error(format string, args ...any) { c.log(slog.LevelError, format, args...) }

func (c *componentLogger) With(key string, value any) Logger {
	return &componentLogger{base: c.base.With(key, value), component: c.component}
}

// IsNil reports whether logger is a typed-nil or untyped-nil Logger, the
// same defensive check the teacher's logging package exposes so callers can
// safely no-op a not-yet-configured logger.
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	cl, ok := l.(*componentLogger)
	return ok && cl == nil
}

// OrNop returns l, or a no-op Logger if l is nil.
func OrNop(l Logger) Logger {
	if IsNil(l) {
		return nopLogger{}
	}
	return l
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)    {}
func (nopLogger) Info(string, ...any)     {}
func (nopLogger) Warn(string, ...any)     {}
func (nopLogger) Error(string, ...any)    {}
func (n nopLogger) With(string, any) Logger { return n }
