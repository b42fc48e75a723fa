package grace

import (
	"context"
	"errors"
	"time"

	"github.com/arloliu/tether/internal/job"
	"github.com/arloliu/tether/types"
)

// Locker runs an action under the state store's lock.
type Locker interface {
	WithLock(ctx context.Context, fn func()) error
}

// Canceller retires one key after its grace period.
//
// Sequence: wait Period, cancel Task under the lock, join Task, then Retire.
// The task must be cancelled while holding the lock because revival inspects
// IsCancelled under that same lock to decide between resuming and restarting.
type Canceller struct {
	// Key is only used for logging.
	Key any

	// Period is the grace period to wait out.
	Period time.Duration

	// Task is the key's running task, nil when it had already finished.
	Task *job.Job

	// Lock serializes the cancel request with revival.
	Lock Locker

	// Retire removes the key's entry and publishes the new map.
	Retire func(ctx context.Context, self *job.Job) error

	Logger types.Logger
}

// Run is the canceller body, meant to be launched with Group.Go.
//
// When ctx is cancelled with types.ErrKeyRevived the canceller exits without
// touching anything. When it is cancelled with types.ErrSourceExhausted it still
// cancels and joins its task and retires the key, ignoring cancellation.
func (c *Canceller) Run(ctx context.Context, self *job.Job) {
	err := c.wait(ctx)
	if err == nil {
		err = c.cancelAndJoin(ctx, &types.KeyRemovedError{GracePeriod: c.Period})
	}
	if err == nil {
		err = c.Retire(ctx, self)
	}
	if err == nil {
		return
	}

	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, types.ErrSourceExhausted):
		c.Logger.Debug("source exhausted during grace period, cancelling task", "key", c.Key)
		// Cleanup must finish even though ctx is already cancelled.
		cleanup := context.WithoutCancel(ctx)
		_ = c.cancelAndJoin(cleanup, cause)
		if err := c.Retire(cleanup, self); err != nil {
			c.Logger.Warn("failed to retire key after source exhaustion", "key", c.Key, "error", err)
		}
	case errors.Is(cause, types.ErrKeyRevived):
		c.Logger.Debug("grace period aborted, key revived", "key", c.Key)
	default:
		c.Logger.Debug("grace period canceller stopped", "key", c.Key, "error", err)
	}
}

func (c *Canceller) wait(ctx context.Context) error {
	timer := time.NewTimer(c.Period)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Canceller) cancelAndJoin(ctx context.Context, cause error) error {
	if c.Task == nil {
		return nil
	}

	if err := c.Lock.WithLock(ctx, func() { c.Task.Cancel(cause) }); err != nil {
		return err
	}

	return c.Task.Join(ctx)
}
