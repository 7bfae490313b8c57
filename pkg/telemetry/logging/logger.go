package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format is the log output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Logger wraps log/slog with the proxy's conventions: a parsed
// level/format pair at construction, and WithContext to pick up the
// conn_id/request_id/component fields set by the server's middleware.
type Logger struct {
	slog *slog.Logger
}

// Config configures a Logger.
type Config struct {
	// Level is "debug", "info", "warn", or "error" (default "info").
	Level string
	// Format is "json" or "text" (default "json").
	Format string
	// AddSource includes the file:line of the log call site.
	AddSource bool
	// Writer is the output destination (default os.Stdout).
	Writer io.Writer
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return &Logger{slog: slog.New(handler)}, nil
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, append(extractContextFields(ctx), args...)...)
}
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, append(extractContextFields(ctx), args...)...)
}

// With returns a child logger carrying args on every subsequent call.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// WithContext returns a child logger carrying the conn_id/request_id/
// component fields found on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// Slog exposes the underlying *slog.Logger for code that wants to pass
// one to a library expecting log/slog directly.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func parseFormat(s string) (Format, error) {
	switch s {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
