// Package source provides built-in snapshot sources.
//
// Every source implements types.SnapshotSource and emits complete snapshots:
//
//   - Static: snapshots pushed in memory with Update
//   - KVKeys: the key set of a NATS JetStream KV bucket
//   - Dir: the entries of a directory, watched with fsnotify
//   - RedisSet: the members of a Redis set, polled on an interval
//
// Custom sources can be implemented by satisfying types.SnapshotSource.
package source
