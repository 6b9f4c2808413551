// Package logging builds slog loggers and adapts them to export.Logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-bookshelf/export"
)

// New creates a *slog.Logger writing to stderr and optionally to logFile.
// Format is "json" or "text". The returned cleanup func closes the log file
// if one was opened; callers must defer it.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	writers := []io.Writer{os.Stderr}
	cleanup := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	return NewWithWriter(io.MultiWriter(writers...), level, format), cleanup, nil
}

// NewWithWriter creates a *slog.Logger writing to w.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
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

// Adapter exposes a *slog.Logger as an export.Logger.
type Adapter struct {
	Logger *slog.Logger
}

var _ export.Logger = Adapter{}

// NewAdapter wraps logger, falling back to slog.Default.
func NewAdapter(logger *slog.Logger) Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return Adapter{Logger: logger}
}

func (a Adapter) Debugf(format string, args ...any) {
	a.log(slog.LevelDebug, format, args...)
}

func (a Adapter) Infof(format string, args ...any) {
	a.log(slog.LevelInfo, format, args...)
}

func (a Adapter) Errorf(format string, args ...any) {
	a.log(slog.LevelError, format, args...)
}

func (a Adapter) log(level slog.Level, format string, args ...any) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
