package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SupervisorMetrics
	LifecycleMetrics
	AutosaveMetrics
}

// SupervisorMetrics defines metrics for the snapshot-diff driver.
type SupervisorMetrics interface {
	// RecordSnapshotProcessed records one diffed snapshot.
	RecordSnapshotProcessed(added, removed int, duration float64)

	// RecordSnapshotPublished records a published result map.
	RecordSnapshotPublished(version uint64)

	// RecordSubscriberDropped records a snapshot dropped for a slow subscriber.
	RecordSubscriberDropped()

	// SetTrackedKeys records the number of keys currently in the lifecycle map.
	SetTrackedKeys(count int)
}

// LifecycleMetrics defines metrics for per-key lifecycle transitions.
type LifecycleMetrics interface {
	// RecordTaskStarted records a per-key task start.
	RecordTaskStarted()

	// RecordTaskFinished records a per-key task end ("done", "failed" or "cancelled").
	RecordTaskFinished(result string, duration float64)

	// RecordGracePeriodStarted records a key entering its grace period.
	RecordGracePeriodStarted()

	// RecordRevival records a key coming back during its grace period.
	RecordRevival(restarted bool)

	// RecordKeyRetired records a key removed from the lifecycle map.
	RecordKeyRetired(afterGrace bool)
}

// AutosaveMetrics defines metrics for the autosave consumer.
type AutosaveMetrics interface {
	// RecordSave records a document save attempt.
	RecordSave(success bool, duration float64)

	// RecordSaveRetry records a retried save.
	RecordSaveRetry()
}
