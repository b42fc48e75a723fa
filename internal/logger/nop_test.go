package logger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/types"
)

func TestNopLogger(t *testing.T) {
	logger := NewNop()

	var _ types.Logger = logger

	require.NotPanics(t, func() {
		logger.Debug("task started", "key", "a")
		logger.Info("key retired", "key", "a")
		logger.Warn("", nil)
		logger.Error("message", "single")
		logger.Fatal("message", "k1", "v1", "k2", "v2") // Should NOT exit
	})
}

func TestFormatKeyValues(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want string
	}{
		{"empty", nil, ""},
		{"pairs", []any{"key", "a", "grace", "50ms"}, "key=a grace=50ms"},
		{"odd", []any{"key", "a", "dangling"}, "key=a dangling=<missing>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatKeyValues(tt.in))
		})
	}
}

func TestTestLogger(t *testing.T) {
	logger := NewTest(t)

	require.NotPanics(t, func() {
		logger.Debug("debug", "key", 1)
		logger.Info("info")
		logger.Warn("warn", "key")
		logger.Error("error", "err", "boom")
	})
}
