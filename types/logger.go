package types

// Logger defines methods for structured logging.
//
// Methods take alternating key-value pairs. internal/logging adapts log/slog,
// logrus and zap (through the ...w methods of its SugaredLogger).
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and calls os.Exit(1).
	//
	// The supervisor never calls Fatal itself; protocol violations panic instead so
	// that the failing goroutine's stack is preserved.
	Fatal(msg string, keysAndValues ...any)
}
