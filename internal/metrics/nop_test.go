package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopMetrics(t *testing.T) {
	metrics := NewNop()
	require.IsType(t, &NopMetrics{}, metrics)

	// Should not panic with any inputs
	require.NotPanics(t, func() {
		metrics.RecordSnapshotProcessed(3, 1, 0.002)
		metrics.RecordSnapshotProcessed(-1, -1, -1)
		metrics.RecordSnapshotPublished(42)
		metrics.RecordSubscriberDropped()
		metrics.SetTrackedKeys(0)
		metrics.RecordTaskStarted()
		metrics.RecordTaskFinished("done", 1.5)
		metrics.RecordTaskFinished("", 0)
		metrics.RecordGracePeriodStarted()
		metrics.RecordRevival(true)
		metrics.RecordKeyRetired(false)
		metrics.RecordSave(false, 0.1)
		metrics.RecordSaveRetry()
	})
}
