package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/tether/types"
)

// Dispatcher runs hook callbacks in background goroutines so they never
// execute while the state lock is held. Missing callbacks are skipped.
type Dispatcher struct {
	hooks  types.Hooks
	logger types.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A nil hooks value dispatches nothing.
func NewDispatcher(hooks *types.Hooks, logger types.Logger) *Dispatcher {
	d := &Dispatcher{logger: logger}
	if hooks != nil {
		d.hooks = *hooks
	}

	return d
}

// KeyAdded dispatches OnKeyAdded.
func (d *Dispatcher) KeyAdded(ctx context.Context, key any) {
	if fn := d.hooks.OnKeyAdded; fn != nil {
		d.run(ctx, "OnKeyAdded", key, func(ctx context.Context) error { return fn(ctx, key) })
	}
}

// KeyRemoved dispatches OnKeyRemoved.
func (d *Dispatcher) KeyRemoved(ctx context.Context, key any, gracePeriod time.Duration) {
	if fn := d.hooks.OnKeyRemoved; fn != nil {
		d.run(ctx, "OnKeyRemoved", key, func(ctx context.Context) error { return fn(ctx, key, gracePeriod) })
	}
}

// KeyRevived dispatches OnKeyRevived.
func (d *Dispatcher) KeyRevived(ctx context.Context, key any, restarted bool) {
	if fn := d.hooks.OnKeyRevived; fn != nil {
		d.run(ctx, "OnKeyRevived", key, func(ctx context.Context) error { return fn(ctx, key, restarted) })
	}
}

// KeyRetired dispatches OnKeyRetired.
func (d *Dispatcher) KeyRetired(ctx context.Context, key any) {
	if fn := d.hooks.OnKeyRetired; fn != nil {
		d.run(ctx, "OnKeyRetired", key, func(ctx context.Context) error { return fn(ctx, key) })
	}
}

// TaskFailed dispatches OnTaskFailed.
func (d *Dispatcher) TaskFailed(ctx context.Context, key any, err error) {
	if fn := d.hooks.OnTaskFailed; fn != nil {
		d.run(ctx, "OnTaskFailed", key, func(ctx context.Context) error { return fn(ctx, key, err) })
	}
}

// Wait blocks until every dispatched callback has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, name string, key any, fn func(context.Context) error) {
	d.wg.Go(func() {
		if err := fn(ctx); err != nil {
			d.logger.Warn("hook returned error", "hook", name, "key", key, "error", err)
		}
	})
}
