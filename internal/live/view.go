// Package live provides the per-key live view cell.
package live

import (
	"context"
	"slices"
	"sync/atomic"
)

// View is a last-value-wins cell holding the current items of one key.
//
// A single writer (the supervisor's driver) replaces the value; any number of
// readers observe it. Each stored value comes with a channel that is closed when
// the next value replaces it, so readers can wait for changes without locking.
type View[T comparable] struct {
	cur atomic.Pointer[viewState[T]]
}

type viewState[T comparable] struct {
	items   []T
	changed chan struct{}
}

// NewView creates a view holding a copy of items.
func NewView[T comparable](items []T) *View[T] {
	v := &View[T]{}
	v.cur.Store(&viewState[T]{items: slices.Clone(items), changed: make(chan struct{})})

	return v
}

// Load returns the current items.
//
// The returned slice is shared with other readers and must not be modified.
func (v *View[T]) Load() []T {
	return v.cur.Load().items
}

// Changed returns a channel closed when the current value is replaced.
//
// Typical use:
//
//	for {
//	    items, changed := view.Load(), view.Changed()
//	    handle(items)
//	    select {
//	    case <-changed:
//	    case <-ctx.Done():
//	        return
//	    }
//	}
func (v *View[T]) Changed() <-chan struct{} {
	return v.cur.Load().changed
}

// Wait blocks until the value changes and returns the new items.
//
// Returns:
//   - []T: Items after the change
//   - error: ctx.Err() when ctx ends first
func (v *View[T]) Wait(ctx context.Context) ([]T, error) {
	select {
	case <-v.Changed():
		return v.Load(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Store replaces the current items.
//
// Storing a value with the same set of items is a no-op and wakes nobody.
// Store must only be called by one goroutine at a time.
//
// Returns:
//   - bool: true if the value changed
func (v *View[T]) Store(items []T) bool {
	old := v.cur.Load()
	if sameSet(old.items, items) {
		return false
	}

	v.cur.Store(&viewState[T]{items: slices.Clone(items), changed: make(chan struct{})})
	close(old.changed)

	return true
}

func sameSet[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}

	seen := make(map[T]struct{}, len(a))
	for _, item := range a {
		seen[item] = struct{}{}
	}
	for _, item := range b {
		if _, ok := seen[item]; !ok {
			return false
		}
	}

	return true
}
