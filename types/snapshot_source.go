package types

import "context"

// SnapshotSource produces a time-ordered sequence of item snapshots.
//
// Implementations can observe various backends:
//   - Static: in-memory pushes, for tests and embedding
//   - NATS KV: the set of keys in a bucket
//   - Directory: the files in a directory
//   - Redis: the members of a set
//
// Every value received from the channel is a complete snapshot (NOT a delta).
// The channel is closed when the source is exhausted or ctx is cancelled.
type SnapshotSource[T any] interface {
	// Watch starts producing snapshots.
	//
	// Parameters:
	//   - ctx: Context bounding the lifetime of the watch
	//
	// Returns:
	//   - <-chan []T: Snapshot stream, closed when the source is exhausted
	//   - error: Startup error (nil on success)
	Watch(ctx context.Context) (<-chan []T, error)
}
