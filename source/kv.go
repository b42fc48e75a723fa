package source

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/tether/internal/kvutil"
	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/types"
)

// DefaultKVDebounce is how long KVKeys waits for the key set to settle after a change.
const DefaultKVDebounce = 100 * time.Millisecond

// KVKeys emits the set of keys present in a NATS JetStream KV bucket.
//
// The initial replay of the bucket is emitted as one snapshot. Later puts and
// deletes are coalesced for the debounce interval before the next snapshot.
// Snapshots are sorted.
type KVKeys struct {
	kv       jetstream.KeyValue
	filter   string
	debounce time.Duration
	logger   types.Logger
}

var _ types.SnapshotSource[string] = (*KVKeys)(nil)

// KVOption configures a KVKeys source.
type KVOption func(*KVKeys)

// WithKVFilter restricts the watched keys to a subject pattern such as "orders.*".
func WithKVFilter(pattern string) KVOption {
	return func(s *KVKeys) { s.filter = pattern }
}

// WithKVDebounce overrides DefaultKVDebounce. Zero emits on every change.
func WithKVDebounce(d time.Duration) KVOption {
	return func(s *KVKeys) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithKVLogger sets the logger used for watch diagnostics.
func WithKVLogger(l types.Logger) KVOption {
	return func(s *KVKeys) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewKVKeys creates a source over an existing bucket.
func NewKVKeys(kv jetstream.KeyValue, opts ...KVOption) *KVKeys {
	s := &KVKeys{
		kv:       kv,
		debounce: DefaultKVDebounce,
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// OpenKVKeys creates or opens the bucket described by cfg and returns a source over it.
func OpenKVKeys(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig, opts ...KVOption) (*KVKeys, error) {
	kv, err := kvutil.EnsureBucket(ctx, js, cfg, 0)
	if err != nil {
		return nil, err
	}

	return NewKVKeys(kv, opts...), nil
}

// Watch starts watching the bucket. The stream closes when ctx ends or the
// underlying watcher stops.
func (s *KVKeys) Watch(ctx context.Context) (<-chan []string, error) {
	var (
		watcher jetstream.KeyWatcher
		err     error
	)
	if s.filter == "" {
		watcher, err = s.kv.WatchAll(ctx, jetstream.MetaOnly())
	} else {
		watcher, err = s.kv.Watch(ctx, s.filter, jetstream.MetaOnly())
	}
	if err != nil {
		return nil, fmt.Errorf("watch KV bucket %s: %w", s.kv.Bucket(), err)
	}

	out := make(chan []string, 1)
	go s.loop(ctx, watcher, out)

	return out, nil
}

func (s *KVKeys) loop(ctx context.Context, watcher jetstream.KeyWatcher, out chan<- []string) {
	defer close(out)
	defer func() {
		if err := watcher.Stop(); err != nil {
			s.logger.Debug("stop KV watcher", "bucket", s.kv.Bucket(), "error", err)
		}
	}()

	keys := make(map[string]struct{})
	replayed := false

	quiet := &debouncer{quiet: s.debounce}
	defer quiet.stop()

	emit := func() bool {
		snapshot := slices.Sorted(maps.Keys(keys))
		select {
		case out <- snapshot:
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
			if !emit() {
				return
			}
		case entry, ok := <-watcher.Updates():
			if !ok {
				s.logger.Debug("KV watcher closed", "bucket", s.kv.Bucket())
				return
			}

			if entry == nil {
				replayed = true
				if !emit() {
					return
				}

				continue
			}

			switch entry.Operation() {
			case jetstream.KeyValuePut:
				keys[entry.Key()] = struct{}{}
			case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				delete(keys, entry.Key())
			}

			if !replayed {
				continue
			}

			if !quiet.arm() && !emit() {
				return
			}
		}
	}
}
