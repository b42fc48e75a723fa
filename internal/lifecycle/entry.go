// Package lifecycle implements the per-key lifecycle state machine.
//
// Each key of the supervisor's map holds exactly one Entry:
//
//	Loading       a task is running and has not produced a result
//	Done          the task finished, its outcome is retained
//	InGracePeriod the key left the snapshot; a canceller is counting down
//
// Transitions are total functions over these three variants. Illegal
// transitions are protocol violations and panic.
package lifecycle

import (
	"github.com/arloliu/tether/internal/job"
	"github.com/arloliu/tether/internal/live"
	"github.com/arloliu/tether/types"
)

// Entry is the lifecycle state of one key. The variants are *Loading, *Done and
// *InGracePeriod; the interface is sealed.
type Entry[T comparable, R any] interface {
	// State returns the variant tag.
	State() types.EntryState

	// Values returns the key's live view.
	Values() *live.View[T]

	sealed()
}

// Loading is a key whose task is still running.
type Loading[T comparable, R any] struct {
	Task *job.Job
	View *live.View[T]
}

// Done is a key whose task has finished.
type Done[T comparable, R any] struct {
	Outcome types.Outcome[R]
	View    *live.View[T]
}

// InGracePeriod is a key that left the snapshot and is waiting to be cancelled.
//
// Remembered is the *Loading or *Done entry that comes back on revival.
type InGracePeriod[T comparable, R any] struct {
	Remembered Entry[T, R]
	Canceller  *job.Job
}

func (*Loading[T, R]) State() types.EntryState       { return types.EntryLoading }
func (*Done[T, R]) State() types.EntryState          { return types.EntryDone }
func (*InGracePeriod[T, R]) State() types.EntryState { return types.EntryInGracePeriod }

func (e *Loading[T, R]) Values() *live.View[T]       { return e.View }
func (e *Done[T, R]) Values() *live.View[T]          { return e.View }
func (e *InGracePeriod[T, R]) Values() *live.View[T] { return e.Remembered.Values() }

func (*Loading[T, R]) sealed()       {}
func (*Done[T, R]) sealed()          {}
func (*InGracePeriod[T, R]) sealed() {}

// Result returns the Done outcome of an entry, looking through a grace period.
//
// Returns:
//   - types.Outcome[R]: The outcome when the task has finished
//   - bool: false while the task is still loading
func Result[T comparable, R any](e Entry[T, R]) (types.Outcome[R], bool) {
	switch v := e.(type) {
	case *Done[T, R]:
		return v.Outcome, true
	case *InGracePeriod[T, R]:
		return Result[T, R](v.Remembered)
	default:
		return types.Outcome[R]{}, false
	}
}
