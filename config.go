package tether

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for a Supervisor.
//
// All duration fields accept standard Go duration strings like "250ms", "5s", "1m".
type Config struct {
	// GracePeriod is how long a key may be absent from the snapshots before its
	// task is cancelled. A key that reappears within the grace period keeps its
	// task (or result) untouched.
	//
	// Zero is meaningful: a removed key is cancelled and retired immediately,
	// before the next snapshot is processed. Negative values are invalid.
	GracePeriod time.Duration `yaml:"gracePeriod"`

	// UpdateBuffer is the capacity of the Updates channel.
	// Publication is conflated, so a full buffer delays but never reorders maps.
	UpdateBuffer int `yaml:"updateBuffer"`

	// SubscriberBuffer is the capacity of each Subscribe channel.
	// Maps are dropped for a subscriber whose buffer is full.
	SubscriberBuffer int `yaml:"subscriberBuffer"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// The default grace period is zero (immediate cancellation), matching a plain
// "one task per key" supervisor.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		GracePeriod:      0,
		UpdateBuffer:     64,
		SubscriberBuffer: 16,
	}
}

// ApplyDefaults fills in missing configuration values with defaults.
//
// GracePeriod is left untouched because zero is a valid setting.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.UpdateBuffer == 0 {
		cfg.UpdateBuffer = defaults.UpdateBuffer
	}
	if cfg.SubscriberBuffer == 0 {
		cfg.SubscriberBuffer = defaults.SubscriberBuffer
	}
}

// Validate checks configuration constraints.
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.GracePeriod < 0 {
		return fmt.Errorf("%w: GracePeriod must be >= 0, got %v", ErrInvalidConfig, cfg.GracePeriod)
	}
	if cfg.UpdateBuffer < 0 {
		return fmt.Errorf("%w: UpdateBuffer must be >= 0, got %d", ErrInvalidConfig, cfg.UpdateBuffer)
	}
	if cfg.SubscriberBuffer < 1 {
		return fmt.Errorf("%w: SubscriberBuffer must be >= 1, got %d", ErrInvalidConfig, cfg.SubscriberBuffer)
	}

	return nil
}

// LoadConfig reads a YAML configuration file and applies defaults.
//
// Parameters:
//   - path: Path to a YAML file using the Config yaml keys
//
// Returns:
//   - Config: Parsed and defaulted configuration
//   - error: Read, parse or validation error
//
// Example:
//
//	# tether.yaml
//	gracePeriod: 500ms
//	updateBuffer: 16
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// TestConfig returns a configuration with a short grace period for tests.
//
// Returns:
//   - Config: Configuration with a 50ms grace period
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.GracePeriod = 50 * time.Millisecond

	return cfg
}
