package lifecycle

import (
	"fmt"
	"time"

	"github.com/benbjohnson/immutable"

	"github.com/arloliu/tether/internal/job"
	"github.com/arloliu/tether/internal/live"
	"github.com/arloliu/tether/types"
)

// Map is the lifecycle map held by the state store.
type Map[K comparable, T comparable, R any] = immutable.Map[K, Entry[T, R]]

// Runtime starts the goroutines the state machine needs.
//
// Both methods are called while the store's lock is held; they must only launch
// goroutines and return, never wait on them.
type Runtime[K comparable, T comparable, R any] interface {
	// StartTask launches the task for key.
	// predecessor, when non-nil, is a cancelled task of the same key that the new
	// task must wait for before doing any work.
	StartTask(key K, view *live.View[T], predecessor *job.Job) *job.Job

	// StartCanceller launches the grace-period canceller for key.
	// task is nil when the key's task had already finished.
	StartCanceller(key K, task *job.Job) *job.Job
}

// Change tells the caller what a transition did, so that hooks, metrics and
// publication can happen after the lock is released.
type Change int

const (
	// ChangeNone means the map was not modified.
	ChangeNone Change = iota
	// ChangeAdded means a new key got a fresh task.
	ChangeAdded
	// ChangeResumed means a key came back and kept its remembered entry.
	ChangeResumed
	// ChangeRestarted means a key came back after its task was cancelled and got a new task.
	ChangeRestarted
	// ChangeRemoved means a key was deleted immediately (zero grace period).
	ChangeRemoved
	// ChangeGraceStarted means a key entered its grace period.
	ChangeGraceStarted
	// ChangeCompleted means a Done result was installed for a present key.
	ChangeCompleted
	// ChangeCompletedInGrace means a result was installed behind a grace period.
	ChangeCompletedInGrace
	// ChangeDiscarded means a cancelled task's result was dropped.
	ChangeDiscarded
	// ChangeRetired means a grace-period entry was removed by its canceller.
	ChangeRetired
)

// String returns the string representation of the change.
func (c Change) String() string {
	switch c {
	case ChangeNone:
		return "none"
	case ChangeAdded:
		return "added"
	case ChangeResumed:
		return "resumed"
	case ChangeRestarted:
		return "restarted"
	case ChangeRemoved:
		return "removed"
	case ChangeGraceStarted:
		return "grace_started"
	case ChangeCompleted:
		return "completed"
	case ChangeCompletedInGrace:
		return "completed_in_grace"
	case ChangeDiscarded:
		return "discarded"
	case ChangeRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// Transition is the result of one state-machine step.
type Transition struct {
	Change Change

	// Join is a task that was cancelled under the lock and must be joined
	// after the lock is released (zero grace period removal).
	Join *job.Job
}

// Publishes reports whether the transition changes the published results.
func (t Transition) Publishes() bool {
	switch t.Change {
	case ChangeCompleted, ChangeRemoved, ChangeRetired:
		return true
	default:
		return false
	}
}

// Machine applies lifecycle transitions to a lifecycle map.
//
// Every method must be called from inside the store's Update so that the map it
// receives is current and the map it returns is installed atomically.
type Machine[K comparable, T comparable, R any] struct {
	rt          Runtime[K, T, R]
	gracePeriod time.Duration
}

// NewMachine creates a state machine.
//
// Parameters:
//   - rt: Runtime used to launch tasks and cancellers
//   - gracePeriod: Delay between a key leaving the snapshot and its cancellation (0 = immediate)
//
// Returns:
//   - *Machine[K, T, R]: A new state machine
func NewMachine[K comparable, T comparable, R any](rt Runtime[K, T, R], gracePeriod time.Duration) *Machine[K, T, R] {
	return &Machine[K, T, R]{rt: rt, gracePeriod: gracePeriod}
}

// GracePeriod returns the configured grace period.
func (m *Machine[K, T, R]) GracePeriod() time.Duration {
	return m.gracePeriod
}

// AddKey handles a key that appeared in the snapshot.
//
// A key without entry gets a fresh Loading task. A key in its grace period is
// revived: its canceller is cancelled and joined, then the remembered entry is
// restored, unless the remembered task was already cancelled, in which case a new
// task is started because cancellation cannot be undone.
//
// Panics with ErrProtocolViolation when the key already has a live entry.
func (m *Machine[K, T, R]) AddKey(state *Map[K, T, R], key K, values []T) (*Map[K, T, R], Transition) {
	cur, ok := state.Get(key)
	if !ok {
		view := live.NewView(values)
		task := m.rt.StartTask(key, view, nil)

		return state.Set(key, &Loading[T, R]{Task: task, View: view}), Transition{Change: ChangeAdded}
	}

	switch e := cur.(type) {
	case *InGracePeriod[T, R]:
		// The canceller takes the same lock to cancel the task, so once it is joined
		// here the remembered task is either untouched or definitely cancelled.
		e.Canceller.CancelAndJoin(types.ErrKeyRevived)

		view := e.Remembered.Values()
		view.Store(values)

		if l, isLoading := e.Remembered.(*Loading[T, R]); isLoading && l.Task.IsCancelled() {
			task := m.rt.StartTask(key, view, l.Task)

			return state.Set(key, &Loading[T, R]{Task: task, View: view}), Transition{Change: ChangeRestarted}
		}

		return state.Set(key, e.Remembered), Transition{Change: ChangeResumed}
	case *Loading[T, R], *Done[T, R]:
		violation("key %v is already running", key)
	default:
		violation("unknown entry %T for key %v", cur, key)
	}

	return state, Transition{}
}

// RemoveKey handles a key that left the snapshot.
//
// With a zero grace period the entry is deleted at once; a running task is
// cancelled here (under the lock) and returned in Transition.Join. Otherwise the
// entry moves into its grace period and a canceller is started.
//
// Panics with ErrProtocolViolation when the key has no entry or is already in
// its grace period.
func (m *Machine[K, T, R]) RemoveKey(state *Map[K, T, R], key K) (*Map[K, T, R], Transition) {
	cur, ok := state.Get(key)
	if !ok {
		violation("removing key %v that has no entry", key)
	}

	switch e := cur.(type) {
	case *Loading[T, R], *Done[T, R]:
		var task *job.Job
		if l, isLoading := e.(*Loading[T, R]); isLoading {
			task = l.Task
		}

		if m.gracePeriod <= 0 {
			if task != nil {
				task.Cancel(&types.KeyRemovedError{GracePeriod: m.gracePeriod})
			}

			return state.Delete(key), Transition{Change: ChangeRemoved, Join: task}
		}

		e.Values().Store(nil)
		canceller := m.rt.StartCanceller(key, task)

		return state.Set(key, &InGracePeriod[T, R]{Remembered: e, Canceller: canceller}), Transition{Change: ChangeGraceStarted}
	case *InGracePeriod[T, R]:
		violation("key %v is already in its grace period; only its canceller may remove it", key)
	default:
		violation("unknown entry %T for key %v", cur, key)
	}

	return state, Transition{}
}

// Complete installs the outcome of a finished task.
//
// The outcome of a cancelled task is discarded. Loading becomes Done; a Loading
// remembered by a grace period becomes Done behind the same grace period.
//
// Panics with ErrProtocolViolation when the key is not loading with this task.
func (m *Machine[K, T, R]) Complete(state *Map[K, T, R], key K, task *job.Job, outcome types.Outcome[R]) (*Map[K, T, R], Transition) {
	if task.IsCancelled() {
		return state, Transition{Change: ChangeDiscarded}
	}

	cur, ok := state.Get(key)
	if !ok {
		violation("task for key %v finished but the key has no entry", key)
	}

	switch e := cur.(type) {
	case *Loading[T, R]:
		if e.Task != task {
			violation("task for key %v finished but another task owns the key", key)
		}

		return state.Set(key, &Done[T, R]{Outcome: outcome, View: e.View}), Transition{Change: ChangeCompleted}
	case *InGracePeriod[T, R]:
		l, isLoading := e.Remembered.(*Loading[T, R])
		if !isLoading || l.Task != task {
			violation("task for key %v finished but its grace entry remembers another state", key)
		}

		done := &Done[T, R]{Outcome: outcome, View: l.View}

		return state.Set(key, &InGracePeriod[T, R]{Remembered: done, Canceller: e.Canceller}), Transition{Change: ChangeCompletedInGrace}
	case *Done[T, R]:
		violation("a running task for key %v can only be loading or in its grace period", key)
	default:
		violation("unknown entry %T for key %v", cur, key)
	}

	return state, Transition{}
}

// Retire removes a grace-period entry on behalf of its canceller.
//
// Panics with ErrProtocolViolation when the key is not in a grace period owned by canceller.
func (m *Machine[K, T, R]) Retire(state *Map[K, T, R], key K, canceller *job.Job) (*Map[K, T, R], Transition) {
	cur, ok := state.Get(key)
	if !ok {
		violation("retiring key %v that has no entry", key)
	}

	g, isGrace := cur.(*InGracePeriod[T, R])
	if !isGrace || g.Canceller != canceller {
		violation("key %v can only be retired by its own grace-period canceller", key)
	}

	return state.Delete(key), Transition{Change: ChangeRetired}
}

func violation(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", types.ErrProtocolViolation, fmt.Sprintf(format, args...)))
}
