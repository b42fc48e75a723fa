package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/immutable"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/internal/job"
	"github.com/arloliu/tether/internal/live"
	"github.com/arloliu/tether/internal/store"
	"github.com/arloliu/tether/types"
)

// fakeRuntime starts jobs that block until cancelled.
type fakeRuntime struct {
	tasks        []*job.Job
	predecessors []*job.Job
	cancellers   []*job.Job
}

func (f *fakeRuntime) StartTask(_ string, _ *live.View[string], predecessor *job.Job) *job.Job {
	j := job.Start(context.Background(), nil, func(ctx context.Context, _ *job.Job) { <-ctx.Done() })
	f.tasks = append(f.tasks, j)
	f.predecessors = append(f.predecessors, predecessor)

	return j
}

func (f *fakeRuntime) StartCanceller(_ string, _ *job.Job) *job.Job {
	j := job.Start(context.Background(), nil, func(ctx context.Context, _ *job.Job) { <-ctx.Done() })
	f.cancellers = append(f.cancellers, j)

	return j
}

func (f *fakeRuntime) stopAll() {
	for _, j := range append(f.tasks, f.cancellers...) {
		j.CancelAndJoin(context.Canceled)
	}
}

func newMachine(t *testing.T, grace time.Duration) (*Machine[string, string, int], *fakeRuntime, *Map[string, string, int]) {
	t.Helper()

	rt := &fakeRuntime{}
	t.Cleanup(rt.stopAll)

	empty := immutable.NewMap[string, Entry[string, int]](store.NewHasher[string]())

	return NewMachine[string, string, int](rt, grace), rt, empty
}

func requireViolation(t *testing.T, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a protocol violation panic")
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, types.ErrProtocolViolation)
	}()
	fn()
}

func TestMachine_AddKey(t *testing.T) {
	t.Run("new key starts a task", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)

		next, tr := m.AddKey(state, "a", []string{"a1"})
		require.Equal(t, ChangeAdded, tr.Change)
		require.Len(t, rt.tasks, 1)
		require.Nil(t, rt.predecessors[0])

		e, ok := next.Get("a")
		require.True(t, ok)
		require.Equal(t, types.EntryLoading, e.State())
		require.Equal(t, []string{"a1"}, e.Values().Load())
	})

	t.Run("running key is a violation", func(t *testing.T) {
		m, _, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)

		requireViolation(t, func() { m.AddKey(state, "a", nil) })
	})

	t.Run("done key is a violation", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 1})

		requireViolation(t, func() { m.AddKey(state, "a", nil) })
	})

	t.Run("revival resumes the remembered task", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", []string{"a1"})
		state, _ = m.RemoveKey(state, "a")

		next, tr := m.AddKey(state, "a", []string{"a2"})
		require.Equal(t, ChangeResumed, tr.Change)
		require.Len(t, rt.tasks, 1, "no new task on revival")
		require.True(t, rt.cancellers[0].IsCancelled())

		e, _ := next.Get("a")
		loading, ok := e.(*Loading[string, int])
		require.True(t, ok)
		require.Same(t, rt.tasks[0], loading.Task)
		require.False(t, loading.Task.IsCancelled())
		require.Equal(t, []string{"a2"}, e.Values().Load())
	})

	t.Run("revival restarts a cancelled task", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		// The canceller already cancelled the task under the lock.
		rt.tasks[0].Cancel(&types.KeyRemovedError{GracePeriod: time.Second})

		next, tr := m.AddKey(state, "a", []string{"a1"})
		require.Equal(t, ChangeRestarted, tr.Change)
		require.Len(t, rt.tasks, 2)
		require.Same(t, rt.tasks[0], rt.predecessors[1])

		e, _ := next.Get("a")
		loading := e.(*Loading[string, int])
		require.Same(t, rt.tasks[1], loading.Task)
	})

	t.Run("revival keeps a done result", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 7})
		state, _ = m.RemoveKey(state, "a")

		next, tr := m.AddKey(state, "a", nil)
		require.Equal(t, ChangeResumed, tr.Change)

		e, _ := next.Get("a")
		out, ok := Result[string, int](e)
		require.True(t, ok)
		require.Equal(t, 7, out.Value)
	})
}

func TestMachine_RemoveKey(t *testing.T) {
	t.Run("zero grace cancels loading task", func(t *testing.T) {
		m, rt, state := newMachine(t, 0)
		state, _ = m.AddKey(state, "a", nil)

		next, tr := m.RemoveKey(state, "a")
		require.Equal(t, ChangeRemoved, tr.Change)
		require.True(t, tr.Publishes())
		require.Same(t, rt.tasks[0], tr.Join)
		require.True(t, rt.tasks[0].IsCancelled())
		require.Equal(t, 0, next.Len())

		cause := context.Cause(rt.tasks[0].Context())
		require.ErrorIs(t, cause, types.ErrKeyRemoved)
	})

	t.Run("zero grace drops done entry", func(t *testing.T) {
		m, rt, state := newMachine(t, 0)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 1})

		next, tr := m.RemoveKey(state, "a")
		require.Equal(t, ChangeRemoved, tr.Change)
		require.Nil(t, tr.Join)
		require.Equal(t, 0, next.Len())
	})

	t.Run("grace period keeps the entry", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", []string{"a1"})

		next, tr := m.RemoveKey(state, "a")
		require.Equal(t, ChangeGraceStarted, tr.Change)
		require.False(t, tr.Publishes())
		require.Len(t, rt.cancellers, 1)
		require.False(t, rt.tasks[0].IsCancelled())

		e, _ := next.Get("a")
		require.Equal(t, types.EntryInGracePeriod, e.State())
		require.Empty(t, e.Values().Load())
	})

	t.Run("missing key is a violation", func(t *testing.T) {
		m, _, state := newMachine(t, time.Second)
		requireViolation(t, func() { m.RemoveKey(state, "a") })
	})

	t.Run("grace entry is a violation", func(t *testing.T) {
		m, _, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		requireViolation(t, func() { m.RemoveKey(state, "a") })
	})
}

func TestMachine_Complete(t *testing.T) {
	t.Run("loading becomes done", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)

		next, tr := m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 3})
		require.Equal(t, ChangeCompleted, tr.Change)
		require.True(t, tr.Publishes())

		e, _ := next.Get("a")
		require.Equal(t, types.EntryDone, e.State())
	})

	t.Run("error outcome is kept", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)

		boom := errors.New("boom")
		next, _ := m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Err: boom})

		e, _ := next.Get("a")
		out, ok := Result[string, int](e)
		require.True(t, ok)
		require.ErrorIs(t, out.Err, boom)
	})

	t.Run("grace entry remembers the result", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		next, tr := m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 3})
		require.Equal(t, ChangeCompletedInGrace, tr.Change)
		require.False(t, tr.Publishes())

		e, _ := next.Get("a")
		grace := e.(*InGracePeriod[string, int])
		require.Equal(t, types.EntryDone, grace.Remembered.State())
		require.Same(t, rt.cancellers[0], grace.Canceller)
	})

	t.Run("cancelled task is discarded", func(t *testing.T) {
		m, rt, state := newMachine(t, 0)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		next, tr := m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{Value: 3})
		require.Equal(t, ChangeDiscarded, tr.Change)
		require.Same(t, state, next)
	})

	t.Run("done entry is a violation", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{})

		requireViolation(t, func() { m.Complete(state, "a", rt.tasks[0], types.Outcome[int]{}) })
	})

	t.Run("foreign task is a violation", func(t *testing.T) {
		m, _, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		stranger := job.Start(context.Background(), nil, func(context.Context, *job.Job) {})
		<-stranger.Done()

		requireViolation(t, func() { m.Complete(state, "a", stranger, types.Outcome[int]{}) })
	})
}

func TestMachine_Retire(t *testing.T) {
	t.Run("own canceller removes the entry", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		next, tr := m.Retire(state, "a", rt.cancellers[0])
		require.Equal(t, ChangeRetired, tr.Change)
		require.Equal(t, 0, next.Len())
	})

	t.Run("other canceller is a violation", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")
		state, _ = m.AddKey(state, "a", nil)
		state, _ = m.RemoveKey(state, "a")

		requireViolation(t, func() { m.Retire(state, "a", rt.cancellers[0]) })
	})

	t.Run("live key is a violation", func(t *testing.T) {
		m, rt, state := newMachine(t, time.Second)
		state, _ = m.AddKey(state, "a", nil)
		canceller := job.Start(context.Background(), nil, func(context.Context, *job.Job) {})
		<-canceller.Done()
		_ = rt

		requireViolation(t, func() { m.Retire(state, "a", canceller) })
	})
}

func TestChangeString(t *testing.T) {
	require.Equal(t, "added", ChangeAdded.String())
	require.Equal(t, "retired", ChangeRetired.String())
	require.Equal(t, "unknown", Change(99).String())
}
