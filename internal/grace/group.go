// Package grace implements the grace-period canceller.
//
// A Group is a child scope owning every pending grace-period cancellation. It
// is cancelled with a distinguishable cause when the snapshot source is exhausted,
// which switches every pending canceller into uninterruptible cleanup so that no
// task outlives the supervisor.
package grace

import (
	"context"
	"sync"

	"github.com/arloliu/tether/internal/job"
)

// Group is the scope of all grace-period cancellers of one supervisor run.
type Group struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
}

// NewGroup creates a group whose scope is a child of parent.
func NewGroup(parent context.Context) *Group {
	ctx, cancel := context.WithCancelCause(parent)

	return &Group{ctx: ctx, cancel: cancel}
}

// Go launches fn as a tracked job inside the group's scope.
func (g *Group) Go(fn func(ctx context.Context, self *job.Job)) *job.Job {
	return job.Start(g.ctx, &g.wg, fn)
}

// Shutdown cancels the scope with cause and waits for every canceller to return.
//
// Parameters:
//   - cause: Cancellation cause observed by pending cancellers through context.Cause
func (g *Group) Shutdown(cause error) {
	g.cancel(cause)
	g.wg.Wait()
}
