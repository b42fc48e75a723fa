package tether

import (
	"context"
	"errors"
)

// Supervise starts a Supervisor over source in the background and returns its
// snapshot stream.
//
// The stream is closed once source is exhausted and every task has finished,
// or once ctx is cancelled and every task has stopped.
//
// Parameters:
//   - ctx: Context bounding the supervisor
//   - cfg: Configuration (nil means DefaultConfig)
//   - source: Snapshot stream; closing it ends the run
//   - keyOf: Key selector
//   - task: Per-key task
//   - opts: Optional logger, metrics and hooks
//
// Returns:
//   - <-chan Snapshot[K, R]: Published snapshots
//   - error: Construction error
//
// Example:
//
//	updates, err := tether.Supervise(ctx, &cfg, snapshots, keyOf, task)
//	if err != nil {
//	    return err
//	}
//	for snap := range updates {
//	    render(snap.Results())
//	}
func Supervise[T comparable, K comparable, R any](
	ctx context.Context,
	cfg *Config,
	source <-chan []T,
	keyOf func(T) K,
	task TaskFunc[K, T, R],
	opts ...Option,
) (<-chan Snapshot[K, R], error) {
	if source == nil {
		return nil, ErrSourceRequired
	}

	sup, err := New(cfg, keyOf, task, opts...)
	if err != nil {
		return nil, err
	}

	updates := sup.Updates()
	go func() {
		if err := sup.Run(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
			sup.logger.Warn("supervisor stopped with error", "error", err)
		}
	}()

	return updates, nil
}

// MapEach supervises one task per distinct item and publishes their results.
//
// It is Supervise with every item being its own key.
func MapEach[T comparable, R any](
	ctx context.Context,
	cfg *Config,
	source <-chan []T,
	fn func(ctx context.Context, item T) (R, error),
	opts ...Option,
) (<-chan Snapshot[T, R], error) {
	if fn == nil {
		return nil, ErrTaskRequired
	}

	return Supervise(ctx, cfg, source, identity[T], func(ctx context.Context, item T, _ *View[T]) (R, error) {
		return fn(ctx, item)
	}, opts...)
}

// Collect runs fn once per distinct item of the latest snapshot, in parallel,
// and blocks until source is exhausted and every fn has returned.
//
// An item that leaves the snapshots has its fn cancelled after cfg.GracePeriod
// unless it comes back first. Errors returned by fn are logged and otherwise ignored.
//
// Returns:
//   - error: nil when source was exhausted, ctx's error when cancelled
func Collect[T comparable](
	ctx context.Context,
	cfg *Config,
	source <-chan []T,
	fn func(ctx context.Context, item T) error,
	opts ...Option,
) error {
	if fn == nil {
		return ErrTaskRequired
	}

	sup, err := New(cfg, identity[T], func(ctx context.Context, item T, _ *View[T]) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, opts...)
	if err != nil {
		return err
	}

	return sup.Run(ctx, source)
}

func identity[T any](v T) T { return v }
