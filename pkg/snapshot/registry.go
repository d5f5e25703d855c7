// Package snapshot wraps the metadata store's snapshot sub-store with the
// publish/query surface the rest of the core uses, plus a background
// service that prunes snapshots past their configured lifespan.
package snapshot

import (
	"context"
	"errors"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metadata"
	"github.com/mansu/kaldb/pkg/metrics"
	"github.com/mansu/kaldb/pkg/types"
)

// Registry publishes and queries snapshot records.
type Registry struct {
	store *metadata.SnapshotStore
}

// NewRegistry wraps store.
func NewRegistry(store *metadata.SnapshotStore) *Registry {
	return &Registry{store: store}
}

// Publish creates snap's record. Each chunk builder run mints a fresh
// uuid-based chunk id, so an AlreadyExistsError here means the record was
// already published by a previous attempt at the same build (e.g. a retry
// after the upload succeeded but a later step failed) — treated as success
// rather than an error.
func (r *Registry) Publish(ctx context.Context, snap *types.Snapshot) error {
	err := r.store.Create(ctx, snap)
	if !tolerableCreateError(err) {
		return err
	}
	if err != nil {
		log.WithComponent("snapshot-registry").Info().
			Str("snapshot", snap.Name).
			Msg("snapshot already published, treating as success")
	}
	metrics.SnapshotsPublished.Inc()
	return nil
}

// tolerableCreateError reports whether err from store.Create can be treated
// as a successful publish: either nil, or an AlreadyExistsError from a retry
// of the same fresh-uuid chunk id.
func tolerableCreateError(err error) bool {
	if err == nil {
		return true
	}
	var alreadyExists *kaldberr.AlreadyExistsError
	return errors.As(err, &alreadyExists)
}

// ListByPartition returns every snapshot recorded for partitionID.
func (r *Registry) ListByPartition(ctx context.Context, partitionID string) ([]*types.Snapshot, error) {
	return r.store.ListByPartition(ctx, partitionID)
}

// ListByTimeRange returns every snapshot overlapping [fromEpochMs, toEpochMs].
func (r *Registry) ListByTimeRange(ctx context.Context, fromEpochMs, toEpochMs int64) ([]*types.Snapshot, error) {
	return r.store.ListByTimeRange(ctx, fromEpochMs, toEpochMs)
}
