// Package hooks provides default Hooks implementations and the dispatcher
// that runs them off the supervisor's critical path.
package hooks

import (
	"context"
	"time"

	"github.com/arloliu/tether/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, any) error                = (*NopHooks)(nil).OnKeyAdded
	_ func(context.Context, any, time.Duration) error = (*NopHooks)(nil).OnKeyRemoved
	_ func(context.Context, any, bool) error          = (*NopHooks)(nil).OnKeyRevived
	_ func(context.Context, any) error                = (*NopHooks)(nil).OnKeyRetired
	_ func(context.Context, any, error) error         = (*NopHooks)(nil).OnTaskFailed
)

// NewNop creates a Hooks value whose callbacks all return nil.
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnKeyAdded:   h.OnKeyAdded,
		OnKeyRemoved: h.OnKeyRemoved,
		OnKeyRevived: h.OnKeyRevived,
		OnKeyRetired: h.OnKeyRetired,
		OnTaskFailed: h.OnTaskFailed,
	}
}

// OnKeyAdded is a no-op implementation.
func (h *NopHooks) OnKeyAdded(context.Context, any) error { return nil }

// OnKeyRemoved is a no-op implementation.
func (h *NopHooks) OnKeyRemoved(context.Context, any, time.Duration) error { return nil }

// OnKeyRevived is a no-op implementation.
func (h *NopHooks) OnKeyRevived(context.Context, any, bool) error { return nil }

// OnKeyRetired is a no-op implementation.
func (h *NopHooks) OnKeyRetired(context.Context, any) error { return nil }

// OnTaskFailed is a no-op implementation.
func (h *NopHooks) OnTaskFailed(context.Context, any, error) error { return nil }
