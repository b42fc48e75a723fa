package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/tether/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// a collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Supervisor metrics
	snapshotsProcessed prometheus.Counter
	keyChanges         *prometheus.CounterVec
	diffLatency        prometheus.Histogram
	publishedVersion   prometheus.Gauge
	subscriberDrops    prometheus.Counter
	trackedKeys        prometheus.Gauge

	// Lifecycle metrics
	tasksStarted  prometheus.Counter
	tasksFinished *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	graceStarted  prometheus.Counter
	revivals      *prometheus.CounterVec
	keysRetired   *prometheus.CounterVec

	// Autosave metrics
	saves       *prometheus.CounterVec
	saveLatency prometheus.Histogram
	saveRetries prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "tether" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tether"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.snapshotsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "snapshots_processed_total",
			Help:      "Total source snapshots diffed against the tracked key set.",
		})
		p.keyChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "key_changes_total",
			Help:      "Total keys added to or removed from snapshots by kind (added/removed).",
		}, []string{"kind"})
		p.diffLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "snapshot_diff_seconds",
			Help:      "Time spent applying one snapshot to the lifecycle map.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs .. ~1.6s
		})
		p.publishedVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "published_version",
			Help:      "State version of the most recently published result map.",
		})
		p.subscriberDrops = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "subscriber_drops_total",
			Help:      "Result maps dropped because a subscriber channel was full.",
		})
		p.trackedKeys = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "supervisor",
			Name:      "tracked_keys",
			Help:      "Current number of keys in the lifecycle map, including grace periods.",
		})

		p.tasksStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "tasks_started_total",
			Help:      "Total per-key tasks started.",
		})
		p.tasksFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "tasks_finished_total",
			Help:      "Total per-key tasks finished by result (done, failed, cancelled).",
		}, []string{"result"})
		p.taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "task_duration_seconds",
			Help:      "Per-key task run time in seconds by result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"})
		p.graceStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "grace_periods_started_total",
			Help:      "Total keys that entered a grace period.",
		})
		p.revivals = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "revivals_total",
			Help:      "Total keys revived during their grace period by mode (resumed, restarted).",
		}, []string{"mode"})
		p.keysRetired = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lifecycle",
			Name:      "keys_retired_total",
			Help:      "Total keys removed from the lifecycle map by path (immediate, grace).",
		}, []string{"path"})

		p.saves = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "autosave",
			Name:      "saves_total",
			Help:      "Total document save attempts by success.",
		}, []string{"success"})
		p.saveLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "autosave",
			Name:      "save_duration_seconds",
			Help:      "Document save latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		})
		p.saveRetries = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "autosave",
			Name:      "save_retries_total",
			Help:      "Total retried document saves.",
		})

		p.reg.MustRegister(
			p.snapshotsProcessed, p.keyChanges, p.diffLatency,
			p.publishedVersion, p.subscriberDrops, p.trackedKeys,
			p.tasksStarted, p.tasksFinished, p.taskDuration,
			p.graceStarted, p.revivals, p.keysRetired,
			p.saves, p.saveLatency, p.saveRetries,
		)
	})
}

// SupervisorMetrics implementation

// RecordSnapshotProcessed counts a diffed snapshot and its key changes.
func (p *PrometheusCollector) RecordSnapshotProcessed(added, removed int, duration float64) {
	p.ensureRegistered()
	p.snapshotsProcessed.Inc()
	p.keyChanges.WithLabelValues("added").Add(float64(added))
	p.keyChanges.WithLabelValues("removed").Add(float64(removed))
	p.diffLatency.Observe(duration)
}

// RecordSnapshotPublished sets the published version gauge.
func (p *PrometheusCollector) RecordSnapshotPublished(version uint64) {
	p.ensureRegistered()
	p.publishedVersion.Set(float64(version))
}

// RecordSubscriberDropped increments the subscriber drop counter.
func (p *PrometheusCollector) RecordSubscriberDropped() {
	p.ensureRegistered()
	p.subscriberDrops.Inc()
}

// SetTrackedKeys sets the tracked key gauge.
func (p *PrometheusCollector) SetTrackedKeys(count int) {
	p.ensureRegistered()
	p.trackedKeys.Set(float64(count))
}

// LifecycleMetrics implementation

// RecordTaskStarted increments the task start counter.
func (p *PrometheusCollector) RecordTaskStarted() {
	p.ensureRegistered()
	p.tasksStarted.Inc()
}

// RecordTaskFinished counts a finished task and observes its run time.
func (p *PrometheusCollector) RecordTaskFinished(result string, duration float64) {
	p.ensureRegistered()
	p.tasksFinished.WithLabelValues(result).Inc()
	p.taskDuration.WithLabelValues(result).Observe(duration)
}

// RecordGracePeriodStarted increments the grace period counter.
func (p *PrometheusCollector) RecordGracePeriodStarted() {
	p.ensureRegistered()
	p.graceStarted.Inc()
}

// RecordRevival counts a revival by mode.
func (p *PrometheusCollector) RecordRevival(restarted bool) {
	p.ensureRegistered()
	mode := "resumed"
	if restarted {
		mode = "restarted"
	}
	p.revivals.WithLabelValues(mode).Inc()
}

// RecordKeyRetired counts a removed key by path.
func (p *PrometheusCollector) RecordKeyRetired(afterGrace bool) {
	p.ensureRegistered()
	path := "immediate"
	if afterGrace {
		path = "grace"
	}
	p.keysRetired.WithLabelValues(path).Inc()
}

// AutosaveMetrics implementation

// RecordSave counts a save attempt and observes its latency.
func (p *PrometheusCollector) RecordSave(success bool, duration float64) {
	p.ensureRegistered()
	p.saves.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.saveLatency.Observe(duration)
}

// RecordSaveRetry increments the save retry counter.
func (p *PrometheusCollector) RecordSaveRetry() {
	p.ensureRegistered()
	p.saveRetries.Inc()
}
