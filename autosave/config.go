package autosave

import (
	"fmt"
	"time"

	"github.com/arloliu/tether/types"
)

// Config holds Saver settings.
type Config struct {
	// GracePeriod keeps a file's listener alive this long after its editor
	// disappears from the editor listing. Zero removes it immediately.
	GracePeriod time.Duration `yaml:"gracePeriod"`

	// Debounce is the pause after each save round before the next one starts.
	Debounce time.Duration `yaml:"debounce"`

	// MaxRetries is the number of retries of a failed save.
	MaxRetries int `yaml:"maxRetries"`

	// RetryBackoff is the base delay between save retries.
	RetryBackoff time.Duration `yaml:"retryBackoff"`

	// FlushTimeout bounds the final save of dirty documents on shutdown.
	FlushTimeout time.Duration `yaml:"flushTimeout"`
}

// DefaultConfig returns the default Saver configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod:  0,
		Debounce:     200 * time.Millisecond,
		MaxRetries:   3,
		RetryBackoff: 50 * time.Millisecond,
		FlushTimeout: 5 * time.Second,
	}
}

// ApplyDefaults fills zero fields except GracePeriod with defaults.
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Debounce == 0 {
		cfg.Debounce = defaults.Debounce
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaults.RetryBackoff
	}
	if cfg.FlushTimeout == 0 {
		cfg.FlushTimeout = defaults.FlushTimeout
	}
}

// Validate checks configuration constraints.
func (cfg *Config) Validate() error {
	switch {
	case cfg.GracePeriod < 0:
		return fmt.Errorf("%w: GracePeriod must be >= 0, got %v", types.ErrInvalidConfig, cfg.GracePeriod)
	case cfg.Debounce < 0:
		return fmt.Errorf("%w: Debounce must be >= 0, got %v", types.ErrInvalidConfig, cfg.Debounce)
	case cfg.MaxRetries < 0:
		return fmt.Errorf("%w: MaxRetries must be >= 0, got %d", types.ErrInvalidConfig, cfg.MaxRetries)
	case cfg.RetryBackoff < 0:
		return fmt.Errorf("%w: RetryBackoff must be >= 0, got %v", types.ErrInvalidConfig, cfg.RetryBackoff)
	case cfg.FlushTimeout < 0:
		return fmt.Errorf("%w: FlushTimeout must be >= 0, got %v", types.ErrInvalidConfig, cfg.FlushTimeout)
	}

	return nil
}
