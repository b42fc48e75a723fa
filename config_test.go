package tether

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, time.Duration(0), cfg.GracePeriod)
	require.Equal(t, 64, cfg.UpdateBuffer)
	require.Equal(t, 16, cfg.SubscriberBuffer)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		ApplyDefaults(&cfg)

		require.Equal(t, time.Duration(0), cfg.GracePeriod)
		require.Equal(t, 64, cfg.UpdateBuffer)
		require.Equal(t, 16, cfg.SubscriberBuffer)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			GracePeriod:      2 * time.Second,
			UpdateBuffer:     4,
			SubscriberBuffer: 1,
		}
		ApplyDefaults(&cfg)

		require.Equal(t, 2*time.Second, cfg.GracePeriod)
		require.Equal(t, 4, cfg.UpdateBuffer)
		require.Equal(t, 1, cfg.SubscriberBuffer)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero grace period", func(c *Config) { c.GracePeriod = 0 }, false},
		{"negative grace period", func(c *Config) { c.GracePeriod = -time.Millisecond }, true},
		{"unbuffered updates", func(c *Config) { c.UpdateBuffer = 0 }, false},
		{"negative update buffer", func(c *Config) { c.UpdateBuffer = -1 }, true},
		{"zero subscriber buffer", func(c *Config) { c.SubscriberBuffer = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestConfig_YAML demonstrates that time.Duration works directly with YAML unmarshaling
func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
gracePeriod: 750ms
updateBuffer: 8
subscriberBuffer: 2
`

	var cfg Config
	err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
	require.NoError(t, err)

	require.Equal(t, 750*time.Millisecond, cfg.GracePeriod)
	require.Equal(t, 8, cfg.UpdateBuffer)
	require.Equal(t, 2, cfg.SubscriberBuffer)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial file gets defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("gracePeriod: 3s\n"), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 3*time.Second, cfg.GracePeriod)
		require.Equal(t, 64, cfg.UpdateBuffer)
		require.Equal(t, 16, cfg.SubscriberBuffer)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("gracePeriod: -1s\n"), 0o600))

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.yaml")
		require.NoError(t, os.WriteFile(path, []byte("gracePeriod: [\n"), 0o600))

		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
