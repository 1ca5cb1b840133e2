package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/pure-golang/esim-mailer/logger/devslog"
	"github.com/pure-golang/esim-mailer/logger/noop"
	"github.com/pure-golang/esim-mailer/logger/stdjson"
	"github.com/pure-golang/esim-mailer/mail"
)

type Level string
type Provider string
type contextKeyT string

var contextKey = contextKeyT("github.com/pure-golang/esim-mailer/logger")

const (
	INFO  Level = "info"
	ERROR Level = "error"
	WARN  Level = "warn"
	DEBUG Level = "debug"

	ProviderDevSlog Provider = "dev"      // coloured, for a terminal
	ProviderStdJson Provider = "std_json" // for log collectors
	ProviderNoop    Provider = "noop"     // for unit tests
)

type Config struct {
	Provider Provider `envconfig:"LOG_PROVIDER" default:"dev"`
	Level    Level    `envconfig:"LOG_LEVEL" default:"info"`
}

// NewDefault creates a logger writing to stderr, keeping stdout for the CLI result.
func NewDefault(c Config) *slog.Logger {
	return New(c, os.Stderr)
}

// New creates a logger writing to w.
func New(c Config, w io.Writer) *slog.Logger {
	level := convertLevel(c.Level)
	switch c.Provider {
	case ProviderDevSlog:
		return devslog.New(w, level)
	case ProviderNoop:
		return noop.NewNoop()
	case ProviderStdJson:
		fallthrough
	default:
		return stdjson.New(w, level)
	}
}

// InitDefault creates a new instance of slog.Logger and set it by default.
func InitDefault(c Config) {
	slog.SetDefault(NewDefault(c))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Default().Error(err.Error())
	}))
}

// FromContext extracts the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// NewContext packs l into ctx.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey, l)
}

// WithErr returns the default logger with error attributes.
func WithErr(err error) *slog.Logger {
	return appendErr(slog.Default(), err)
}

// FromContextWithErr extracts the logger from ctx and attaches error attributes.
func FromContextWithErr(ctx context.Context, err error) *slog.Logger {
	return appendErr(FromContext(ctx), err)
}

// appendErr attaches the message, the send failure kind and the root cause
// (e.g. the relay's rejection line) plus a stack trace when one was recorded.
func appendErr(l *slog.Logger, err error) *slog.Logger {
	var stackTracer interface {
		StackTrace() errors.StackTrace
	}

	if errors.As(err, &stackTracer) {
		l = l.With("stack", stackTracer.StackTrace())
	}

	if kind := mail.KindOf(err); kind != mail.KindUnknown {
		l = l.With("error_kind", kind.String())
	}

	if cause := errors.Cause(err); cause != nil && cause != err {
		l = l.With("cause", cause.Error())
	}

	return l.With("error", err.Error())
}

func convertLevel(level Level) slog.Level {
	switch level {
	case INFO:
		return slog.LevelInfo
	case ERROR:
		return slog.LevelError
	case WARN:
		return slog.LevelWarn
	case DEBUG:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
