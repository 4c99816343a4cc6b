// Package logging provides the leveled, subsystem-tagged logger used across
// claudekit. It is a thin layer over log/slog that adds two operator-facing
// levels: Success, for completed-operation summaries, and Exception, for
// unexpected failures caught at a public boundary.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelSuccess sits between Info and Warn so it survives an Info filter.
const LevelSuccess = slog.LevelInfo + 2

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger writes structured records tagged with a subsystem.
type Logger struct {
	base *slog.Logger
}

// New creates a Logger writing to w at the given minimum level.
// format is FormatText or FormatJSON; anything else falls back to text.
func New(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}
	var h slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{base: slog.New(h)}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return New(io.Discard, slog.LevelError+1, FormatText)
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
		a.Value = slog.StringValue("SUCCESS")
	}
	return a
}

// With returns a Logger for the named subsystem.
func (l *Logger) With(subsystem string) *Logger {
	return &Logger{base: l.base.With(slog.String("subsystem", subsystem))}
}

// Slog exposes the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.base }

func (l *Logger) log(level slog.Level, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !l.base.Enabled(ctx, level) {
		return
	}
	l.base.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, attrs ...slog.Attr) { l.log(slog.LevelDebug, msg, attrs...) }

// Info logs an informational message.
func (l *Logger) Info(msg string, attrs ...slog.Attr) { l.log(slog.LevelInfo, msg, attrs...) }

// Success logs the summary of a completed operation.
func (l *Logger) Success(msg string, attrs ...slog.Attr) { l.log(LevelSuccess, msg, attrs...) }

// Warn logs a warning.
func (l *Logger) Warn(msg string, attrs ...slog.Attr) { l.log(slog.LevelWarn, msg, attrs...) }

// Error logs an error with an optional cause.
func (l *Logger) Error(msg string, err error, attrs ...slog.Attr) {
	if err != nil {
		attrs = append(attrs, Err(err))
	}
	l.log(slog.LevelError, msg, attrs...)
}

// Exception logs an unexpected failure caught at an API boundary.
func (l *Logger) Exception(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Bool("exception", true))
	l.Error(msg, err, attrs...)
}

// Err is the conventional attribute for an error value.
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Panic converts a recovered value into an error.
func Panic(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
