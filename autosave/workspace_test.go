package autosave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/types"
)

func nextEditors(t *testing.T, ch <-chan []Editor) []Editor {
	t.Helper()

	select {
	case editors, ok := <-ch:
		require.True(t, ok)
		return editors
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for editor snapshot")
		return nil
	}
}

func TestWorkspace(t *testing.T) {
	ctx := t.Context()
	ws := NewWorkspace()
	ch, err := ws.Editors(ctx)
	require.NoError(t, err)

	require.Empty(t, nextEditors(t, ch))

	a := NewFileEditor(NewFileDocument("a", nil))
	b := NewFileEditor(NewFileDocument("b", nil))

	go func() {
		_ = ws.Open(ctx, a)
		_ = ws.Open(ctx, a)
		_ = ws.Open(ctx, b)
		_ = ws.Close(ctx, a)
		_ = ws.Close(ctx, a)
		ws.Shutdown()
	}()

	require.Equal(t, []Editor{a}, nextEditors(t, ch))
	require.Equal(t, []Editor{a, b}, nextEditors(t, ch))
	require.Equal(t, []Editor{b}, nextEditors(t, ch))

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, []Editor{b}, ws.OpenEditors())

	require.ErrorIs(t, ws.Open(ctx, a), types.ErrSourceClosed)
	require.Equal(t, []Editor{b}, ws.OpenEditors())
}
