// Package types provides core type definitions and interfaces for the tether library.
//
// This package contains shared types that are used across multiple packages in the
// tether library. By keeping these types in a separate package, we avoid import cycles
// between the root tether package and its internal implementations.
//
// Key types:
//   - EntryState: Per-key lifecycle state (Loading, Done, InGracePeriod)
//   - Outcome: Result of a per-key task
//   - SnapshotSource: Producer of item snapshots
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
//   - Hooks: Lifecycle event callbacks
package types
