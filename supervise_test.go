package tether

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSupervise(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := make(chan []string)
		cfg := DefaultConfig()

		updates, err := Supervise(t.Context(), &cfg, src, func(s string) byte { return s[0] },
			func(_ context.Context, key byte, values *View[string]) (int, error) {
				return len(values.Load()), nil
			})
		require.NoError(t, err)

		go func() {
			src <- []string{"apple", "avocado", "banana"}
			close(src)
		}()

		var last Snapshot[byte, int]
		for snap := range updates {
			last = snap
		}

		require.Equal(t, 2, last.Len())
		a, ok := last.Get('a')
		require.True(t, ok)
		require.Equal(t, 2, a.Value)
		b, ok := last.Get('b')
		require.True(t, ok)
		require.Equal(t, 1, b.Value)
	})
}

func TestSupervise_Validation(t *testing.T) {
	cfg := DefaultConfig()
	keyOf := func(s string) string { return s }
	task := func(context.Context, string, *View[string]) (int, error) { return 0, nil }

	_, err := Supervise[string, string, int](t.Context(), &cfg, nil, keyOf, task)
	require.ErrorIs(t, err, ErrSourceRequired)

	_, err = Supervise[string, string, int](t.Context(), &cfg, make(chan []string), keyOf, nil)
	require.ErrorIs(t, err, ErrTaskRequired)
}

func TestSupervise_StreamOutlivesCancelledTasks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		src := make(chan []string)
		cfg := DefaultConfig()

		var stopped atomic.Bool
		updates, err := MapEach(ctx, &cfg, src, func(ctx context.Context, _ string) (int, error) {
			<-ctx.Done()
			time.Sleep(time.Second)
			stopped.Store(true)

			return 0, ctx.Err()
		})
		require.NoError(t, err)

		src <- []string{"slow"}
		synctest.Wait()
		cancel()

		for range updates {
		}
		require.True(t, stopped.Load(), "updates closed while a task was still unwinding")
	})
}

func TestMapEach(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := make(chan []string)
		cfg := DefaultConfig()

		updates, err := MapEach(t.Context(), &cfg, src, func(_ context.Context, item string) (string, error) {
			if item == "bad" {
				return "", errors.New("boom")
			}

			return strings.ToUpper(item), nil
		})
		require.NoError(t, err)

		go func() {
			src <- []string{"x", "y", "bad"}
			close(src)
		}()

		var last Snapshot[string, string]
		for snap := range updates {
			last = snap
		}

		require.Equal(t, []string{"bad", "x", "y"}, sortedKeys(last))
		x, _ := last.Get("x")
		require.Equal(t, "X", x.Value)
		bad, _ := last.Get("bad")
		require.True(t, bad.Failed())
	})
}

func TestMapEach_NilFunc(t *testing.T) {
	cfg := DefaultConfig()
	_, err := MapEach[string, int](t.Context(), &cfg, make(chan []string), nil)
	require.ErrorIs(t, err, ErrTaskRequired)
}

func TestCollect(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := make(chan []string)
		cfg := DefaultConfig()
		cfg.GracePeriod = time.Second

		var (
			mu        sync.Mutex
			finished  []string
			cancelled []string
		)
		go func() {
			src <- []string{"a", "b"}
			synctest.Wait()
			src <- []string{"a"}
			time.Sleep(2 * time.Second)
			close(src)
		}()

		err := Collect(t.Context(), &cfg, src, func(ctx context.Context, item string) error {
			if item == "b" {
				<-ctx.Done()
				mu.Lock()
				cancelled = append(cancelled, item)
				mu.Unlock()

				return context.Cause(ctx)
			}
			mu.Lock()
			finished = append(finished, item)
			mu.Unlock()

			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, finished)
		require.Equal(t, []string{"b"}, cancelled)
	})
}

func TestCollect_Cancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		src := make(chan []string)
		cfg := DefaultConfig()

		go func() {
			src <- []string{"a"}
			synctest.Wait()
			cancel()
		}()

		err := Collect(ctx, &cfg, src, func(ctx context.Context, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func sortedKeys[K interface{ ~string }, R any](snap Snapshot[K, R]) []K {
	keys := snap.Keys()
	slices.Sort(keys)

	return keys
}
