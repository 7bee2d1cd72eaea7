package identity

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logger used across the package. Args are
// key/value pairs.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function to LoggerProvider.
type LoggerProviderFunc func(name string) Logger

func (f LoggerProviderFunc) GetLogger(name string) Logger {
	return f(name)
}

// ResolveLogger returns the logger a component should use: an explicit
// logger wins, then the provider, then the default slog logger.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if provider == nil {
		provider = defaultLoggerProvider{}
	}

	if logger != nil {
		return provider, logger
	}

	if l := provider.GetLogger(name); l != nil {
		return provider, l
	}

	return provider, NewSlogLogger(slog.Default()).named(name)
}

// NewSlogLogger wraps a *slog.Logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &SlogLogger{l: l, ctx: context.Background()}
}

// SlogLogger implements Logger on top of log/slog.
type SlogLogger struct {
	l   *slog.Logger
	ctx context.Context
}

const levelTrace = slog.LevelDebug - 4
const levelFatal = slog.LevelError + 4

func (s *SlogLogger) Trace(msg string, args ...any) { s.l.Log(s.ctx, levelTrace, msg, args...) }
func (s *SlogLogger) Debug(msg string, args ...any) { s.l.DebugContext(s.ctx, msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.InfoContext(s.ctx, msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.WarnContext(s.ctx, msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.ErrorContext(s.ctx, msg, args...) }

// Fatal logs at a level above error. It does not exit the process.
func (s *SlogLogger) Fatal(msg string, args ...any) { s.l.Log(s.ctx, levelFatal, msg, args...) }

func (s *SlogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &SlogLogger{l: s.l, ctx: ctx}
}

func (s *SlogLogger) named(name string) *SlogLogger {
	if name == "" {
		return s
	}
	return &SlogLogger{l: s.l.With("logger", name), ctx: s.ctx}
}

type defaultLoggerProvider struct{}

func (defaultLoggerProvider) GetLogger(name string) Logger {
	return NewSlogLogger(slog.Default()).named(name)
}
