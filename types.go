package tether

import (
	"github.com/arloliu/tether/internal/live"
	"github.com/arloliu/tether/types"
)

// Re-export types from the types package.
//
// Internal packages depend on `types` rather than on the root `tether` package,
// which avoids import cycles while still offering `tether.Logger`,
// `tether.Outcome`, etc. to users.
type (
	EntryState      = types.EntryState
	Outcome[R any]  = types.Outcome[R]
	KeyRemovedError = types.KeyRemovedError
)

// Re-export interfaces from the types package for convenience.
type (
	SnapshotSource[T any] = types.SnapshotSource[T]
	MetricsCollector      = types.MetricsCollector
	Logger                = types.Logger
	Hooks                 = types.Hooks
)

// View is the live set of items currently associated with one key.
//
// A task receives its key's View and may read it at any time. The supervisor
// replaces the value on every snapshot that changes the key's items, and clears
// it while the key waits out its grace period.
type View[T comparable] = live.View[T]

// Re-export EntryState constants from the types package.
const (
	EntryLoading       = types.EntryLoading
	EntryDone          = types.EntryDone
	EntryInGracePeriod = types.EntryInGracePeriod
)
