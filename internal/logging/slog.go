// Package logging adapts common structured loggers (log/slog, logrus, zap)
// to types.Logger.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/arloliu/tether/types"
)

// SlogLogger implements types.Logger using Go's standard log/slog package.
type SlogLogger struct {
	logger *slog.Logger
}

var _ types.Logger = (*SlogLogger)(nil)

// NewSlog wraps an existing slog.Logger.
//
// Example:
//
//	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	sup, err := tether.New(&cfg, keyOf, task, tether.WithLogger(logging.NewSlog(slog.New(handler))))
func NewSlog(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogLogger{logger: logger}
}

// NewSlogDefault wraps slog.Default().
func NewSlogDefault() *SlogLogger {
	return NewSlog(nil)
}

// Debug implements types.Logger.
func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(slog.LevelDebug, msg, keysAndValues)
}

// Info implements types.Logger.
func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.emit(slog.LevelInfo, msg, keysAndValues)
}

// Warn implements types.Logger.
func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.emit(slog.LevelWarn, msg, keysAndValues)
}

// Error implements types.Logger.
func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.emit(slog.LevelError, msg, keysAndValues)
}

// Fatal logs at Error level with fatal=true (slog has no Fatal level) and exits.
func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.emit(slog.LevelError, msg, append(keysAndValues, "fatal", true))
	os.Exit(1) //nolint:revive // Fatal should exit the program
}

func (l *SlogLogger) emit(level slog.Level, msg string, keysAndValues []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, msg, keysAndValues...)
}
