package xslog

import (
	"context"
	"io"
	"log/slog"
)

// NewLogger returns a JSON logger, the format the receiver ships logs in.
func NewLogger(w io.Writer, level Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.ToSlog()}))
}

// NewTextLogger returns a logfmt logger for terminal output.
func NewTextLogger(w io.Writer, level Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.ToSlog()}))
}

func NewLoggerFromEnv(w io.Writer) *slog.Logger {
	return NewLogger(w, FromEnv())
}

type loggerKey struct{}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithAttrs stores the context logger extended with attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return WithLogger(ctx, FromContext(ctx).With(args...))
}
