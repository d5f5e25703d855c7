package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Chunk builder counters
	MessagesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_messages_received_total",
			Help: "Total number of upstream messages successfully parsed and indexed into a chunk",
		},
	)

	MessagesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_messages_failed_total",
			Help: "Total number of upstream messages that failed parsing during chunk building",
		},
	)

	RolloversInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_rollovers_initiated_total",
			Help: "Total number of chunk rollovers (local index close + blob upload) started",
		},
	)

	RolloversCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_rollovers_completed_total",
			Help: "Total number of chunk rollovers whose upload completed and was verified in the blob store",
		},
	)

	RolloversFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_rollovers_failed_total",
			Help: "Total number of chunk rollovers that failed before a snapshot was published",
		},
	)

	// Recovery node assignment counters
	RecoveryNodeAssignmentReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_recovery_node_assignment_received_total",
			Help: "Total number of ASSIGNED transitions observed by a recovery node",
		},
	)

	RecoveryNodeAssignmentSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_recovery_node_assignment_success_total",
			Help: "Total number of recovery tasks completed successfully by a recovery node",
		},
	)

	RecoveryNodeAssignmentFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_recovery_node_assignment_failed_total",
			Help: "Total number of recovery tasks that failed and were left for reassignment",
		},
	)

	// RecoveryTasksTotal is a labeled breakdown alongside the flat counters
	// above, split by outcome for dashboards that want a single series.
	RecoveryTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaldb_recovery_tasks_total",
			Help: "Total recovery tasks processed by outcome",
		},
		[]string{"outcome"},
	)

	// Assignment service metrics (pkg/assign)
	AssignmentCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kaldb_assignment_cycle_duration_seconds",
			Help:    "Duration of one recovery-task assignment cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksAssigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_tasks_assigned_total",
			Help: "Total number of recovery tasks successfully paired with a free recovery node",
		},
	)

	// Snapshot registry / deletion service metrics (pkg/snapshot)
	SnapshotsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_snapshots_published_total",
			Help: "Total number of snapshot records published",
		},
	)

	SnapshotsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kaldb_snapshots_deleted_total",
			Help: "Total number of snapshot records pruned by the deletion service",
		},
	)

	DeletionCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kaldb_snapshot_deletion_cycle_duration_seconds",
			Help:    "Duration of one snapshot-deletion sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesReceived,
		MessagesFailed,
		RolloversInitiated,
		RolloversCompleted,
		RolloversFailed,
		RecoveryNodeAssignmentReceived,
		RecoveryNodeAssignmentSuccess,
		RecoveryNodeAssignmentFailed,
		RecoveryTasksTotal,
		AssignmentCycleDuration,
		TasksAssigned,
		SnapshotsPublished,
		SnapshotsDeleted,
		DeletionCycleDuration,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
