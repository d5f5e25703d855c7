/*
Package metrics defines and registers KalDB's Prometheus metrics.

All metrics are package-level variables registered once via MustRegister in
init(), the same pattern the rest of this codebase's ambient stack follows
for logging and configuration: no explicit setup call required by callers,
just import the package and use the variables.

# Metrics catalog

Chunk builder (pkg/chunk), incremented at the points named in the chunk
builder's component contract:

	kaldb_messages_received_total
	kaldb_messages_failed_total
	kaldb_rollovers_initiated_total
	kaldb_rollovers_completed_total
	kaldb_rollovers_failed_total

Recovery node state machine (pkg/recovery):

	kaldb_recovery_node_assignment_received_total
	kaldb_recovery_node_assignment_success_total
	kaldb_recovery_node_assignment_failed_total
	kaldb_recovery_tasks_total{outcome="success|failed"}

Recovery-task assignment service (pkg/assign):

	kaldb_assignment_cycle_duration_seconds
	kaldb_tasks_assigned_total
	kaldb_recovery_tasks_total{outcome="assigned"}

Snapshot registry and deletion service (pkg/snapshot):

	kaldb_snapshots_published_total
	kaldb_snapshots_deleted_total
	kaldb_snapshot_deletion_cycle_duration_seconds

# Timer helper

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.AssignmentCycleDuration)
*/
package metrics
