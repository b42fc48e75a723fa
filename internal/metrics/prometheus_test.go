package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector_LazyRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewPrometheus(reg, "test")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestPrometheusCollector_Supervisor(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordSnapshotProcessed(3, 1, 0.001)
	p.RecordSnapshotProcessed(0, 2, 0.001)
	p.RecordSnapshotPublished(7)
	p.RecordSubscriberDropped()
	p.SetTrackedKeys(5)

	require.InDelta(t, 2, testutil.ToFloat64(p.snapshotsProcessed), 0)
	require.InDelta(t, 3, testutil.ToFloat64(p.keyChanges.WithLabelValues("added")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(p.keyChanges.WithLabelValues("removed")), 0)
	require.InDelta(t, 7, testutil.ToFloat64(p.publishedVersion), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.subscriberDrops), 0)
	require.InDelta(t, 5, testutil.ToFloat64(p.trackedKeys), 0)
	require.Equal(t, 1, testutil.CollectAndCount(p.diffLatency))
}

func TestPrometheusCollector_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")

	p.RecordTaskStarted()
	p.RecordTaskStarted()
	p.RecordTaskFinished("done", 0.5)
	p.RecordTaskFinished("cancelled", 0.1)
	p.RecordGracePeriodStarted()
	p.RecordRevival(true)
	p.RecordRevival(false)
	p.RecordRevival(false)
	p.RecordKeyRetired(true)

	require.InDelta(t, 2, testutil.ToFloat64(p.tasksStarted), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.tasksFinished.WithLabelValues("done")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.tasksFinished.WithLabelValues("cancelled")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.graceStarted), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.revivals.WithLabelValues("restarted")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(p.revivals.WithLabelValues("resumed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.keysRetired.WithLabelValues("grace")), 0)

	count, err := testutil.GatherAndCount(reg, "tether_lifecycle_tasks_started_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPrometheusCollector_Autosave(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordSave(true, 0.01)
	p.RecordSave(false, 0.02)
	p.RecordSaveRetry()

	require.InDelta(t, 1, testutil.ToFloat64(p.saves.WithLabelValues("true")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.saves.WithLabelValues("false")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(p.saveRetries), 0)
}
