// Package job provides a cancellable, joinable handle around a goroutine.
package job

import (
	"context"
	"sync"
	"sync/atomic"
)

// Job is a goroutine with its own cancellable context.
//
// Cancel records the request (IsCancelled becomes true immediately) and cancels
// the job's context with a cause; Join waits for the goroutine to return. A job
// that finishes on its own is reported as cancelled only if Cancel is called
// on it afterwards.
type Job struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	done      chan struct{}
	cancelled atomic.Bool
}

// Start launches fn in a new goroutine tracked by wg.
//
// The job's context is derived from parent, so cancelling parent cancels the job
// (without marking it cancelled through Cancel).
//
// Parameters:
//   - parent: Parent context
//   - wg: WaitGroup tracking the goroutine (may be nil)
//   - fn: Body; receives the job's context and the job itself
//
// Returns:
//   - *Job: Handle for cancelling and joining
func Start(parent context.Context, wg *sync.WaitGroup, fn func(ctx context.Context, self *Job)) *Job {
	ctx, cancel := context.WithCancelCause(parent)
	j := &Job{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	run := func() {
		defer close(j.done)
		defer cancel(context.Canceled)
		fn(ctx, j)
	}
	if wg != nil {
		wg.Go(run)
	} else {
		go run()
	}

	return j
}

// Cancel requests cancellation with the given cause.
//
// Calling Cancel more than once is safe; only the first cause is kept.
func (j *Job) Cancel(cause error) {
	j.cancelled.Store(true)
	j.cancel(cause)
}

// IsCancelled reports whether Cancel was called.
func (j *Job) IsCancelled() bool {
	return j.cancelled.Load()
}

// Done returns a channel closed when the goroutine has returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Context returns the job's context.
func (j *Job) Context() context.Context {
	return j.ctx
}

// Join waits for the goroutine to return or ctx to end.
//
// Returns:
//   - error: ctx.Err() if ctx ended first, nil otherwise
func (j *Job) Join(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CancelAndJoin cancels the job and waits for it unconditionally.
func (j *Job) CancelAndJoin(cause error) {
	j.Cancel(cause)
	<-j.done
}
