package types

import (
	"context"
	"time"
)

// Hooks defines callbacks for per-key lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// so they never run under the supervisor's state lock. Hooks receive the
// supervisor's run context, which is cancelled when Run returns.
//
// Keys are passed as any because hooks are shared by supervisors of every key type.
//
// Best practices for hook implementation:
//   - Complete quickly
//   - Respect context cancellation
//   - Handle errors gracefully (returned errors are only logged)
//
// Example:
//
//	hooks := &tether.Hooks{
//	    OnTaskFailed: func(ctx context.Context, key any, err error) error {
//	        log.Printf("task for %v failed: %v", key, err)
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnKeyAdded is called when a key first appears and its task is started.
	OnKeyAdded func(ctx context.Context, key any) error

	// OnKeyRemoved is called when a key leaves the snapshot.
	// gracePeriod is zero when the task was cancelled immediately.
	OnKeyRemoved func(ctx context.Context, key any, gracePeriod time.Duration) error

	// OnKeyRevived is called when a key comes back during its grace period.
	// restarted is true when the old task had already been cancelled and a new one was started.
	OnKeyRevived func(ctx context.Context, key any, restarted bool) error

	// OnKeyRetired is called when a key's grace period elapsed and its entry was removed.
	OnKeyRetired func(ctx context.Context, key any) error

	// OnTaskFailed is called when a task returns an error or panics.
	OnTaskFailed func(ctx context.Context, key any, err error) error
}
