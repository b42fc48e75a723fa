package tether

import (
	"github.com/arloliu/tether/internal/lifecycle"
	"github.com/arloliu/tether/types"
)

// Snapshot is an immutable view of the supervisor's per-key state at one version.
//
// Snapshots share structure with the supervisor's internal map, so receiving
// one is cheap regardless of the number of keys. The zero Snapshot is empty.
type Snapshot[K comparable, R any] struct {
	version uint64
	entries entries[K, R]
}

// entries hides the item type T of the lifecycle map from Snapshot.
type entries[K comparable, R any] interface {
	len() int
	lookup(key K) (state types.EntryState, outcome types.Outcome[R], done bool, found bool)
	each(fn func(key K, state types.EntryState, outcome types.Outcome[R], done bool))
}

type lifecycleEntries[K comparable, T comparable, R any] struct {
	m *lifecycle.Map[K, T, R]
}

func (e lifecycleEntries[K, T, R]) len() int {
	return e.m.Len()
}

func (e lifecycleEntries[K, T, R]) lookup(key K) (types.EntryState, types.Outcome[R], bool, bool) {
	entry, ok := e.m.Get(key)
	if !ok {
		return 0, types.Outcome[R]{}, false, false
	}
	outcome, done := lifecycle.Result[T, R](entry)

	return entry.State(), outcome, done, true
}

func (e lifecycleEntries[K, T, R]) each(fn func(K, types.EntryState, types.Outcome[R], bool)) {
	itr := e.m.Iterator()
	for !itr.Done() {
		key, entry, _ := itr.Next()
		outcome, done := lifecycle.Result[T, R](entry)
		fn(key, entry.State(), outcome, done)
	}
}

func newSnapshot[K comparable, T comparable, R any](version uint64, m *lifecycle.Map[K, T, R]) Snapshot[K, R] {
	return Snapshot[K, R]{version: version, entries: lifecycleEntries[K, T, R]{m: m}}
}

// Version returns the state version this snapshot was taken at.
// Versions only grow; every published snapshot has a higher version than the previous one.
func (s Snapshot[K, R]) Version() uint64 {
	return s.version
}

// Len returns the number of tracked keys, including loading keys and keys in
// their grace period.
func (s Snapshot[K, R]) Len() int {
	if s.entries == nil {
		return 0
	}

	return s.entries.len()
}

// Get returns the finished outcome of key's task.
//
// The outcome of a key waiting out its grace period is still reported.
//
// Returns:
//   - Outcome[R]: The task outcome
//   - bool: false when the key is unknown or its task is still loading
func (s Snapshot[K, R]) Get(key K) (Outcome[R], bool) {
	if s.entries == nil {
		return Outcome[R]{}, false
	}
	_, outcome, done, found := s.entries.lookup(key)

	return outcome, found && done
}

// State returns the lifecycle state of key.
func (s Snapshot[K, R]) State(key K) (EntryState, bool) {
	if s.entries == nil {
		return 0, false
	}
	state, _, _, found := s.entries.lookup(key)

	return state, found
}

// Results returns the finished outcomes of all keys as a new map.
func (s Snapshot[K, R]) Results() map[K]Outcome[R] {
	out := make(map[K]Outcome[R], s.Len())
	if s.entries == nil {
		return out
	}
	s.entries.each(func(key K, _ types.EntryState, outcome types.Outcome[R], done bool) {
		if done {
			out[key] = outcome
		}
	})

	return out
}

// Keys returns every tracked key in unspecified order.
func (s Snapshot[K, R]) Keys() []K {
	keys := make([]K, 0, s.Len())
	if s.entries == nil {
		return keys
	}
	s.entries.each(func(key K, _ types.EntryState, _ types.Outcome[R], _ bool) {
		keys = append(keys, key)
	})

	return keys
}
