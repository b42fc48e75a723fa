package hooks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/types"
)

func TestNewNop(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	require.NoError(t, hooks.OnKeyAdded(ctx, "a"))
	require.NoError(t, hooks.OnKeyRemoved(ctx, "a", time.Second))
	require.NoError(t, hooks.OnKeyRevived(ctx, "a", true))
	require.NoError(t, hooks.OnKeyRetired(ctx, "a"))
	require.NoError(t, hooks.OnTaskFailed(ctx, "a", errors.New("boom")))
}

func TestDispatcher_NilHooks(t *testing.T) {
	d := NewDispatcher(nil, logger.NewNop())

	require.NotPanics(t, func() {
		d.KeyAdded(context.Background(), "a")
		d.KeyRemoved(context.Background(), "a", 0)
		d.KeyRevived(context.Background(), "a", false)
		d.KeyRetired(context.Background(), "a")
		d.TaskFailed(context.Background(), "a", errors.New("boom"))
		d.Wait()
	})
}

func TestDispatcher_CallsHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	record := func(ev string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	d := NewDispatcher(&types.Hooks{
		OnKeyAdded: func(_ context.Context, key any) error {
			record("added:" + key.(string))
			return nil
		},
		OnKeyRevived: func(_ context.Context, key any, restarted bool) error {
			if restarted {
				record("restarted:" + key.(string))
			}
			return nil
		},
		OnTaskFailed: func(_ context.Context, key any, err error) error {
			record("failed:" + key.(string) + ":" + err.Error())
			return errors.New("hook error is only logged")
		},
	}, logger.NewTest(t))

	ctx := context.Background()
	d.KeyAdded(ctx, "a")
	d.KeyRevived(ctx, "b", true)
	d.TaskFailed(ctx, "c", errors.New("boom"))
	d.KeyRetired(ctx, "d") // not configured
	d.Wait()

	require.ElementsMatch(t, []string{"added:a", "restarted:b", "failed:c:boom"}, events)
}
