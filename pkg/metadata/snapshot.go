package metadata

import (
	"context"
	"encoding/json"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/types"
)

const kindSnapshots = "snapshots"

// SnapshotStore is the metadata sub-store for types.Snapshot.
type SnapshotStore struct {
	client *EtcdClient
}

// NewSnapshotStore binds a SnapshotStore to client.
func NewSnapshotStore(client *EtcdClient) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Create publishes snapshot. The recovery task lifecycle calls this only
// after confirming via the blob store that snapshotPath actually contains
// data; a published record must never point at an empty or missing path.
func (s *SnapshotStore) Create(ctx context.Context, snap *types.Snapshot) error {
	return s.client.create(ctx, kindSnapshots, snap.Name, snap)
}

func (s *SnapshotStore) Delete(ctx context.Context, name string) error {
	return s.client.delete(ctx, kindSnapshots, name)
}

func (s *SnapshotStore) Get(ctx context.Context, name string) (*types.Snapshot, error) {
	var snap types.Snapshot
	if err := s.client.get(ctx, kindSnapshots, name, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStore) List(ctx context.Context) ([]*types.Snapshot, error) {
	raw, err := s.client.list(ctx, kindSnapshots)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Snapshot, 0, len(raw))
	for _, data := range raw {
		var snap types.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, kaldberr.NewMetadataStoreError("unmarshal snapshot", err)
		}
		out = append(out, &snap)
	}
	return out, nil
}

// ListByPartition returns every snapshot recorded for partitionID.
func (s *SnapshotStore) ListByPartition(ctx context.Context, partitionID string) ([]*types.Snapshot, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Snapshot, 0)
	for _, snap := range all {
		if snap.PartitionID == partitionID {
			out = append(out, snap)
		}
	}
	return out, nil
}

// ListByTimeRange returns every snapshot whose [start,end] overlaps
// [fromEpochMs, toEpochMs].
func (s *SnapshotStore) ListByTimeRange(ctx context.Context, fromEpochMs, toEpochMs int64) ([]*types.Snapshot, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Snapshot, 0)
	for _, snap := range all {
		if snap.StartTimeEpochMs <= toEpochMs && snap.EndTimeEpochMs >= fromEpochMs {
			out = append(out, snap)
		}
	}
	return out, nil
}
