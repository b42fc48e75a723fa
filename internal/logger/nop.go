// Package logger provides logger implementations for tether's own tests and defaults.
package logger

import "github.com/arloliu/tether/types"

var _ types.Logger = (*NopLogger)(nil)

// NopLogger drops every message. Supervisors and savers built without
// WithLogger use it.
type NopLogger struct{}

// NewNop returns a NopLogger.
func NewNop() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Fatal drops the message and keeps the process running.
func (*NopLogger) Fatal(string, ...any) {}
