// Package tether provides a keyed-task supervisor: it consumes a stream of item
// snapshots, groups items by key, and keeps exactly one task running per key.
//
// A key that disappears from the snapshots is not cancelled right away. Its
// cancellation is deferred by a grace period, so a key that comes back quickly
// (for example an editor that is briefly missing from a listing while a UI
// refreshes) keeps its in-flight work.
//
// # Quick Start
//
//	cfg := tether.DefaultConfig()
//	cfg.GracePeriod = 500 * time.Millisecond
//
//	updates, err := tether.Supervise(ctx, &cfg, snapshots,
//	    func(f OpenFile) string { return f.Path },
//	    func(ctx context.Context, path string, files *tether.View[OpenFile]) (Stats, error) {
//	        return watch(ctx, path, files)
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for snap := range updates {
//	    for path, outcome := range snap.Results() {
//	        fmt.Println(path, outcome.Value, outcome.Err)
//	    }
//	}
//
// # Lifecycle
//
// Every tracked key is in exactly one state:
//
//	Loading        its task is running
//	Done           its task returned; the Outcome is kept
//	InGracePeriod  the key left the snapshots; a cancellation is scheduled
//
// A key in its grace period that reappears is revived: the scheduled
// cancellation is aborted and the key goes back to Loading or Done. If the
// cancellation had already reached the task, a fresh task is started instead,
// after the cancelled one has returned. Two tasks never run for the same key.
//
// When the snapshot source ends, pending grace periods are cut short: their
// tasks are cancelled with ErrSourceExhausted and joined before Run returns.
//
// # Cancellation Causes
//
// Tasks can tell why they were stopped with context.Cause:
//
//	var removed *tether.KeyRemovedError
//	switch cause := context.Cause(ctx); {
//	case errors.As(cause, &removed):
//	    // key gone for longer than removed.GracePeriod
//	case errors.Is(cause, tether.ErrSourceExhausted):
//	    // the whole supervisor is shutting down
//	}
//
// # Sources
//
// The source subpackage provides ready-made SnapshotSource implementations:
// an in-memory Static source, the key set of a NATS KV bucket, the files of a
// directory (fsnotify) and the members of a Redis set.
//
// # Observability
//
// Supervisors accept a Logger (slog, logrus and zap adapters are provided), a
// MetricsCollector (Prometheus or no-op) and lifecycle Hooks through options.
package tether
