// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/tether/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default when no collector is configured.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	sup, err := tether.New(&cfg, keyOf, task, tether.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SupervisorMetrics implementation

// RecordSnapshotProcessed discards the snapshot diff metric.
func (n *NopMetrics) RecordSnapshotProcessed(_ /* added */, _ /* removed */ int, _ /* duration */ float64) {
	// No-op
}

// RecordSnapshotPublished discards the publication metric.
func (n *NopMetrics) RecordSnapshotPublished(_ /* version */ uint64) {
	// No-op
}

// RecordSubscriberDropped discards the dropped-snapshot metric.
func (n *NopMetrics) RecordSubscriberDropped() {
	// No-op
}

// SetTrackedKeys discards the tracked key gauge.
func (n *NopMetrics) SetTrackedKeys(_ /* count */ int) {
	// No-op
}

// LifecycleMetrics implementation

// RecordTaskStarted discards the task start metric.
func (n *NopMetrics) RecordTaskStarted() {
	// No-op
}

// RecordTaskFinished discards the task end metric.
func (n *NopMetrics) RecordTaskFinished(_ /* result */ string, _ /* duration */ float64) {
	// No-op
}

// RecordGracePeriodStarted discards the grace period metric.
func (n *NopMetrics) RecordGracePeriodStarted() {
	// No-op
}

// RecordRevival discards the revival metric.
func (n *NopMetrics) RecordRevival(_ /* restarted */ bool) {
	// No-op
}

// RecordKeyRetired discards the retirement metric.
func (n *NopMetrics) RecordKeyRetired(_ /* afterGrace */ bool) {
	// No-op
}

// AutosaveMetrics implementation

// RecordSave discards the save metric.
func (n *NopMetrics) RecordSave(_ /* success */ bool, _ /* duration */ float64) {
	// No-op
}

// RecordSaveRetry discards the save retry metric.
func (n *NopMetrics) RecordSaveRetry() {
	// No-op
}
