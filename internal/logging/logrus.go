package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/tether/types"
)

// LogrusLogger implements types.Logger on top of a logrus.FieldLogger.
//
// Key-value pairs are converted to logrus.Fields. Non-string keys are
// formatted with %v and a dangling key gets the value "<missing>".
type LogrusLogger struct {
	logger logrus.FieldLogger
}

var _ types.Logger = (*LogrusLogger)(nil)

// NewLogrus wraps a logrus logger or entry. A nil logger falls back to
// logrus.StandardLogger().
func NewLogrus(logger logrus.FieldLogger) *LogrusLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &LogrusLogger{logger: logger}
}

func (l *LogrusLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, keysAndValues ...any) {
	l.logger.WithFields(toFields(keysAndValues)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.WithFields(toFields(keysAndValues)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, keysAndValues ...any) {
	l.logger.WithFields(toFields(keysAndValues)).Error(msg)
}

// Fatal delegates to logrus, which runs exit handlers and calls os.Exit(1).
func (l *LogrusLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.WithFields(toFields(keysAndValues)).Fatal(msg)
}

func toFields(keysAndValues []any) logrus.Fields {
	fields := make(logrus.Fields, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			fields[key] = keysAndValues[i+1]
		} else {
			fields[key] = "<missing>"
		}
	}

	return fields
}
