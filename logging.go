package tether

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/internal/metrics"
)

// NewSlogLogger adapts a *slog.Logger (nil means slog.Default()).
func NewSlogLogger(l *slog.Logger) Logger {
	return logging.NewSlog(l)
}

// NewLogrusLogger adapts a logrus logger or entry (nil means logrus.StandardLogger()).
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return logging.NewLogrus(l)
}

// NewZapLogger adapts a sugared zap logger (nil means a no-op zap logger).
func NewZapLogger(l *zap.SugaredLogger) Logger {
	return logging.NewZap(l)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return logger.NewNop()
}

// NewPrometheusMetrics creates a Prometheus-backed MetricsCollector.
//
// Parameters:
//   - reg: Registerer for the collectors (prometheus.DefaultRegisterer if nil)
//   - namespace: Metric namespace ("tether" if empty)
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}

// NewNopMetrics returns a MetricsCollector that discards everything.
func NewNopMetrics() MetricsCollector {
	return metrics.NewNop()
}
