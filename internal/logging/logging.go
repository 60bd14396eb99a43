// Package logging provides the structured logger shared by the coordinator,
// engine client, cache adapters, and facade. It wraps zerolog rather than
// the standard library's log package, and stamps every logger with a
// correlation id so a request's lifecycle can be traced across components
// without distributed tracing infrastructure.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger, kept as a named type so
// callers depend on this package rather than importing zerolog directly.
type Logger struct {
	zerolog.Logger
}

// New builds a Logger writing JSON lines to w at the given level. Pass
// os.Stderr and zerolog.InfoLevel for typical host-application wiring.
func New(w io.Writer, level zerolog.Level) *Logger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: zl}
}

// Default returns a Logger writing to stderr at info level, used when a
// host application does not supply one explicitly.
func Default() *Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}

// Nop returns a Logger that discards everything, used as the zero-config
// default for components constructed without an explicit logger (mainly in
// tests).
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithCorrelationID returns a child logger carrying a "correlation_id"
// field, generating a fresh uuid when id is empty.
func (l *Logger) WithCorrelationID(id string) *Logger {
	if id == "" {
		id = uuid.NewString()
	}
	child := l.Logger.With().Str("correlation_id", id).Logger()
	return &Logger{Logger: child}
}

type correlationIDKey struct{}

// ContextWithCorrelationID attaches id to ctx so every component on a
// request's path that logs (coordinator, engine client) can recover the same
// id via LoggerFromContext without threading it through every call
// signature explicitly.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// LoggerFromContext returns base.WithCorrelationID(id) using the id attached
// by ContextWithCorrelationID, or a freshly generated one if ctx carries
// none — so a request that enters through a component that never called
// ContextWithCorrelationID still gets a (locally unique) correlation id
// instead of an empty one.
func LoggerFromContext(ctx context.Context, base *Logger) *Logger {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return base.WithCorrelationID(id)
}
