package tether

// Option configures a Supervisor with optional dependencies.
type Option func(*supervisorOptions)

// supervisorOptions holds optional Supervisor configuration.
type supervisorOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
}

// WithHooks sets per-key lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	hooks := &tether.Hooks{
//	    OnKeyRetired: func(ctx context.Context, key any) error {
//	        log.Printf("stopped watching %v", key)
//	        return nil
//	    },
//	}
//	sup, err := tether.New(&cfg, keyOf, task, tether.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *supervisorOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	metrics := tether.NewPrometheusMetrics(prometheus.DefaultRegisterer, "")
//	sup, err := tether.New(&cfg, keyOf, task, tether.WithMetrics(metrics))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *supervisorOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	zl, _ := zap.NewProduction()
//	sup, err := tether.New(&cfg, keyOf, task, tether.WithLogger(tether.NewZapLogger(zl.Sugar())))
func WithLogger(logger Logger) Option {
	return func(o *supervisorOptions) {
		o.logger = logger
	}
}
