package server

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Field is a structured logging key/value pair. The helper
// constructors below (String/Int/Duration/Err) exist so call sites
// never have to name the slog package directly; log/slog already does
// the encoding.
type Field = slog.Attr

func String(key, value string) Field     { return slog.String(key, value) }
func Int(key string, value int) Field    { return slog.Int(key, value) }
func Bool(key string, value bool) Field  { return slog.Bool(key, value) }
func Err(err error) Field                { return slog.Any("error", err) }
func Duration(key string, d time.Duration) Field { return slog.Duration(key, d) }

// Logger is the component/session/channel-scoped structured logger
// every layer of this package threads through via functional options.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type slogLogger struct {
	inner *slog.Logger
}

// NewLogger builds a Logger backed by a JSON slog handler writing to
// w.
func NewLogger(w io.Writer) Logger {
	return &slogLogger{inner: slog.New(slog.NewJSONHandler(w, nil))}
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.inner.LogAttrs(context.Background(), slog.LevelDebug, msg, fields...) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.inner.LogAttrs(context.Background(), slog.LevelInfo, msg, fields...) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.inner.LogAttrs(context.Background(), slog.LevelWarn, msg, fields...) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.inner.LogAttrs(context.Background(), slog.LevelError, msg, fields...) }

func (l *slogLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &slogLogger{inner: l.inner.With(args...)}
}

// noopLogger is the default when no WithLogger option is supplied —
// every component accepts a nil-safe Logger and never checks for nil
// itself.
type noopLogger struct{}

func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...Field)     {}
func (noopLogger) Info(string, ...Field)      {}
func (noopLogger) Warn(string, ...Field)      {}
func (noopLogger) Error(string, ...Field)     {}
func (noopLogger) With(...Field) Logger       { return noopLogger{} }
