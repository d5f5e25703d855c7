// Package types holds the coordination-store entities KalDB's recovery
// subsystem reads and writes: recovery tasks, recovery nodes, snapshots,
// and the dataset-partition mapping the query path consults.
package types

// NodeRole selects which of KalDB's six cooperating roles a process runs as.
type NodeRole string

const (
	RoleIndex        NodeRole = "INDEX"
	RoleQuery        NodeRole = "QUERY"
	RoleCache        NodeRole = "CACHE"
	RoleManager      NodeRole = "MANAGER"
	RoleRecovery     NodeRole = "RECOVERY"
	RolePreprocessor NodeRole = "PREPROCESSOR"
)

// RecoveryTask is a request to rebuild a bounded, immutable offset range of
// one partition that an indexer failed to cover in real time.
//
// Invariant: StartOffset <= EndOffset. Tasks are never mutated once written;
// they are destroyed by the recovery worker on success or by an operator.
type RecoveryTask struct {
	Name         string `json:"name"`
	PartitionID  string `json:"partitionId"`
	StartOffset  int64  `json:"startOffset"`
	EndOffset    int64  `json:"endOffset"`
	CreatedAtMs  int64  `json:"createdAtMs"`
}

// RecoveryNodeState is a state in the recovery node's FREE/ASSIGNED/
// RECOVERING lifecycle.
type RecoveryNodeState string

const (
	RecoveryNodeFree       RecoveryNodeState = "FREE"
	RecoveryNodeAssigned   RecoveryNodeState = "ASSIGNED"
	RecoveryNodeRecovering RecoveryNodeState = "RECOVERING"
)

// RecoveryNode is the coordination-store record a recovery worker owns for
// the lifetime of its process.
//
// Invariant: State == RecoveryNodeFree implies RecoveryTaskName == "". Only
// the manager may transition FREE -> ASSIGNED; only the owning node may
// transition ASSIGNED -> RECOVERING -> FREE.
type RecoveryNode struct {
	Name              string            `json:"name"`
	RecoveryNodeState RecoveryNodeState `json:"recoveryNodeState"`
	RecoveryTaskName  string            `json:"recoveryTaskName"`
	UpdatedAtMs       int64             `json:"updatedAtMs"`
}

// Snapshot is the metadata record that makes a chunk discoverable and
// queryable once its upload has committed.
//
// Invariant: StartTimeEpochMs <= EndTimeEpochMs, and SnapshotPath must exist
// on the blob store with >= 2 files before this record is published.
// Immutable once published; destroyed only by the snapshot-deletion service.
type Snapshot struct {
	Name             string `json:"name"`
	SnapshotPath     string `json:"snapshotPath"`
	StartTimeEpochMs int64  `json:"startTimeEpochMs"`
	EndTimeEpochMs   int64  `json:"endTimeEpochMs"`
	MaxOffset        int64  `json:"maxOffset"`
	PartitionID      string `json:"partitionId"`
	Size             int64  `json:"size"`
}

// DatasetPartitionMetadata maps a dataset name and time range to the
// partitions that may contain matching data. The core only reads this
// entity; query-side routing that writes it is out of scope.
type DatasetPartitionMetadata struct {
	Name             string   `json:"name"`
	DatasetName      string   `json:"datasetName"`
	StartTimeEpochMs int64    `json:"startTimeEpochMs"`
	EndTimeEpochMs   int64    `json:"endTimeEpochMs"`
	PartitionIDs     []string `json:"partitionIds"`
}
