package source

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/tether/types"
)

// Static is a snapshot source fed by in-memory pushes.
//
// It has a single consumer: Watch may be called once. Update hands a snapshot
// to the watcher and blocks until the watcher has taken it, so snapshots are
// delivered in push order and none is dropped.
type Static[T any] struct {
	in      chan []T
	done    chan struct{}
	initial []T

	mu        sync.Mutex
	watched   bool
	closeOnce sync.Once
}

var _ types.SnapshotSource[int] = (*Static[int])(nil)

// NewStatic creates a push source.
//
// When initial is non-nil it is the first snapshot emitted by Watch.
//
// Example:
//
//	src := source.NewStatic([]string{"a", "b"})
//	go sup.RunSource(ctx, src)
//	_ = src.Update(ctx, []string{"b", "c"})
//	src.Close()
func NewStatic[T any](initial []T) *Static[T] {
	return &Static[T]{
		in:      make(chan []T),
		done:    make(chan struct{}),
		initial: slices.Clone(initial),
	}
}

// Watch returns the snapshot stream. It is closed after Close, or when ctx ends.
//
// Returns types.ErrAlreadyWatched on a second call.
func (s *Static[T]) Watch(ctx context.Context) (<-chan []T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watched {
		return nil, types.ErrAlreadyWatched
	}
	s.watched = true

	out := make(chan []T, 1)
	if s.initial != nil {
		out <- s.initial
	}

	go s.forward(ctx, out)

	return out, nil
}

func (s *Static[T]) forward(ctx context.Context, out chan<- []T) {
	defer close(out)
	defer s.Close()

	for {
		select {
		case items := <-s.in:
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Update pushes a complete snapshot. The slice is copied.
//
// Returns types.ErrSourceClosed after Close, or ctx.Err() if ctx ends first.
func (s *Static[T]) Update(ctx context.Context, items []T) error {
	select {
	case <-s.done:
		return types.ErrSourceClosed
	default:
	}

	snapshot := slices.Clone(items)
	if snapshot == nil {
		snapshot = []T{}
	}

	select {
	case s.in <- snapshot:
		return nil
	case <-s.done:
		return types.ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close exhausts the source. Safe to call more than once.
func (s *Static[T]) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
