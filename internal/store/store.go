// Package store provides the synchronized state store backing the supervisor.
//
// The store holds a persistent (structurally shared) map that is only ever replaced
// wholesale while holding an exclusive lock. Readers get cheap, consistent snapshots
// through an atomic pointer and never take the lock.
package store

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"golang.org/x/sync/semaphore"
)

// State is one published version of the store's map.
type State[K comparable, V any] struct {
	// Version increases by one every time the map is replaced.
	Version uint64

	// Map is the immutable map for this version. Never nil.
	Map *immutable.Map[K, V]
}

// Store is a mutex-guarded persistent map.
//
// All mutations go through Update, the single choke point for read-modify-write.
// The lock is a weighted semaphore rather than a sync.Mutex so that a goroutine
// waiting for it can give up when its context is cancelled.
type Store[K comparable, V any] struct {
	lock  *semaphore.Weighted
	state atomic.Pointer[State[K, V]]
}

// New creates an empty store.
//
// Returns:
//   - *Store[K, V]: Store holding an empty map at version 0
func New[K comparable, V any]() *Store[K, V] {
	s := &Store[K, V]{lock: semaphore.NewWeighted(1)}
	s.state.Store(&State[K, V]{Map: immutable.NewMap[K, V](NewHasher[K]())})

	return s
}

// Load returns the latest state without taking the lock.
func (s *Store[K, V]) Load() State[K, V] {
	return *s.state.Load()
}

// WithLock runs fn while holding the store's exclusive lock.
//
// Parameters:
//   - ctx: Bounds the wait for the lock; fn is not run when ctx ends first
//   - fn: Action to run under the lock
//
// Returns:
//   - error: Wrapped context error if the lock could not be acquired
func (s *Store[K, V]) WithLock(ctx context.Context, fn func()) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	defer s.lock.Release(1)

	fn()

	return nil
}

// Update atomically applies fn to the current map and publishes the result.
//
// fn runs under the lock and must return the next map (or the same map for no change).
// If fn panics the lock is released and the map is left untouched.
//
// Parameters:
//   - ctx: Bounds the wait for the lock
//   - fn: Pure-ish transition from the current map to the next one
//
// Returns:
//   - State[K, V]: The state after the update
//   - error: Wrapped context error if the lock could not be acquired
func (s *Store[K, V]) Update(ctx context.Context, fn func(*immutable.Map[K, V]) *immutable.Map[K, V]) (State[K, V], error) {
	var next State[K, V]
	err := s.WithLock(ctx, func() {
		cur := s.state.Load()
		m := fn(cur.Map)
		if m == cur.Map {
			next = *cur
			return
		}

		next = State[K, V]{Version: cur.Version + 1, Map: m}
		published := next
		s.state.Store(&published)
	})

	return next, err
}
