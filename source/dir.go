package source

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/types"
)

// DefaultDirDebounce is how long Dir waits for a burst of file events to settle.
const DefaultDirDebounce = 100 * time.Millisecond

// Dir emits the names of the regular files in a directory.
//
// The directory is listed once when Watch starts and again whenever fsnotify
// reports a change, after the debounce interval. A snapshot is emitted only
// when the listing differs from the previous one. Names are sorted and
// relative to the directory.
type Dir struct {
	path       string
	extensions []string
	debounce   time.Duration
	logger     types.Logger
}

var _ types.SnapshotSource[string] = (*Dir)(nil)

// DirOption configures a Dir source.
type DirOption func(*Dir)

// WithExtensions keeps only files whose name ends with one of exts (e.g. ".json").
func WithExtensions(exts ...string) DirOption {
	return func(d *Dir) { d.extensions = append(d.extensions, exts...) }
}

// WithDirDebounce overrides DefaultDirDebounce. Zero rescans on every event.
func WithDirDebounce(quiet time.Duration) DirOption {
	return func(d *Dir) {
		if quiet >= 0 {
			d.debounce = quiet
		}
	}
}

// WithDirLogger sets the logger used for watch diagnostics.
func WithDirLogger(l types.Logger) DirOption {
	return func(d *Dir) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDir creates a source over the directory at path.
func NewDir(path string, opts ...DirOption) *Dir {
	d := &Dir{
		path:     path,
		debounce: DefaultDirDebounce,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Watch lists the directory and starts watching it. The stream closes when ctx
// ends or the watcher fails.
func (d *Dir) Watch(ctx context.Context) (<-chan []string, error) {
	initial, err := d.list()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(d.path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch directory %s: %w", d.path, err)
	}

	out := make(chan []string, 1)
	out <- initial

	go d.loop(ctx, watcher, initial, out)

	return out, nil
}

func (d *Dir) loop(ctx context.Context, watcher *fsnotify.Watcher, last []string, out chan<- []string) {
	defer close(out)
	defer watcher.Close()

	quiet := &debouncer{quiet: d.debounce}
	defer quiet.stop()

	rescan := func() bool {
		names, err := d.list()
		if err != nil {
			d.logger.Warn("directory rescan failed", "path", d.path, "error", err)
			return true
		}
		if slices.Equal(names, last) {
			return true
		}
		last = names

		select {
		case out <- names:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-quiet.C():
			quiet.fired()
			if !rescan() {
				return
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !quiet.arm() && !rescan() {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Warn("directory watcher error", "path", d.path, "error", err)
		}
	}
}

func (d *Dir) list() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", d.path, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !d.matches(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	// os.ReadDir already sorts by file name.
	return names, nil
}

func (d *Dir) matches(name string) bool {
	if len(d.extensions) == 0 {
		return true
	}

	return slices.ContainsFunc(d.extensions, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}
