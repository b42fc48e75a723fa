package autosave

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/tether/source"
)

// Workspace tracks the set of open editors and publishes it as a snapshot
// stream suitable for Saver.Run.
type Workspace struct {
	mu      sync.Mutex
	editors []Editor
	src     *source.Static[Editor]
}

// NewWorkspace creates a workspace with no open editors.
func NewWorkspace() *Workspace {
	return &Workspace{src: source.NewStatic([]Editor{})}
}

// Editors returns the stream of open-editor snapshots. It may be called once.
func (w *Workspace) Editors(ctx context.Context) (<-chan []Editor, error) {
	return w.src.Watch(ctx)
}

// Open adds e and publishes the new editor set. Opening the same editor twice
// is a no-op. Open blocks until the snapshot has been accepted by the consumer.
func (w *Workspace) Open(ctx context.Context, e Editor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.editors, e) {
		return nil
	}

	next := append(slices.Clone(w.editors), e)
	if err := w.src.Update(ctx, next); err != nil {
		return err
	}
	w.editors = next

	return nil
}

// Close removes e and publishes the new editor set.
func (w *Workspace) Close(ctx context.Context, e Editor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := slices.Index(w.editors, e)
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(w.editors), idx, idx+1)
	if err := w.src.Update(ctx, next); err != nil {
		return err
	}
	w.editors = next

	return nil
}

// OpenEditors returns the currently open editors.
func (w *Workspace) OpenEditors() []Editor {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.editors)
}

// Shutdown ends the editor stream, which lets a running Saver finish.
func (w *Workspace) Shutdown() {
	w.src.Close()
}
