package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop")

func TestJob_CancelAndJoin(t *testing.T) {
	var wg sync.WaitGroup
	var cause error

	j := Start(context.Background(), &wg, func(ctx context.Context, _ *Job) {
		<-ctx.Done()
		cause = context.Cause(ctx)
	})

	require.False(t, j.IsCancelled())
	j.CancelAndJoin(errStop)

	require.True(t, j.IsCancelled())
	require.ErrorIs(t, cause, errStop)
	wg.Wait()
}

func TestJob_FinishesOnItsOwn(t *testing.T) {
	j := Start(context.Background(), nil, func(context.Context, *Job) {})

	require.NoError(t, j.Join(context.Background()))
	require.False(t, j.IsCancelled())
	require.Error(t, j.Context().Err())
}

func TestJob_CancelAfterFinish(t *testing.T) {
	j := Start(context.Background(), nil, func(context.Context, *Job) {})
	require.NoError(t, j.Join(context.Background()))

	j.Cancel(errStop)
	require.True(t, j.IsCancelled())
	require.NoError(t, j.Join(context.Background()))
}

func TestJob_SelfReference(t *testing.T) {
	got := make(chan *Job, 1)
	j := Start(context.Background(), nil, func(_ context.Context, self *Job) {
		got <- self
	})

	require.Same(t, j, <-got)
}

func TestJob_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	j := Start(parent, nil, func(ctx context.Context, _ *Job) {
		<-ctx.Done()
	})

	cancel()
	require.NoError(t, j.Join(context.Background()))
	require.False(t, j.IsCancelled(), "parent cancellation is not a Cancel call")
}

func TestJob_JoinTimeout(t *testing.T) {
	release := make(chan struct{})
	j := Start(context.Background(), nil, func(context.Context, *Job) {
		<-release
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, j.Join(ctx), context.DeadlineExceeded)

	close(release)
	<-j.Done()
}

func TestJob_FirstCauseWins(t *testing.T) {
	causes := make(chan error, 1)
	j := Start(context.Background(), nil, func(ctx context.Context, _ *Job) {
		<-ctx.Done()
		causes <- context.Cause(ctx)
	})

	j.Cancel(errStop)
	j.Cancel(errors.New("second"))
	<-j.Done()

	require.ErrorIs(t, <-causes, errStop)
}
