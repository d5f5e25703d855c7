// Package recovery implements the recovery task lifecycle and the recovery
// node state machine.
package recovery

import (
	"context"

	"github.com/mansu/kaldb/pkg/chunk"
	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metrics"
	"github.com/mansu/kaldb/pkg/offsets"
	"github.com/mansu/kaldb/pkg/types"
	"github.com/mansu/kaldb/pkg/upstream"
)

// SnapshotPublisher is the subset of snapshot.Registry the lifecycle needs
// to make a built chunk discoverable. snapshot.Registry satisfies it;
// tests substitute an in-memory fake.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap *types.Snapshot) error
}

// Lifecycle executes recovery tasks end-to-end: validate the requested
// offset range against what the upstream currently retains, stream the
// clamped range through the chunk builder, and publish the resulting
// snapshot record.
type Lifecycle struct {
	log           upstream.Log
	builder       *chunk.Builder
	snapshots     SnapshotPublisher
	blobURIPrefix string
}

// NewLifecycle builds a Lifecycle over log, builder, and snapshots.
// blobURIPrefix is the bucket-rooted prefix chunks are uploaded under
// (e.g. "s3://bucket/").
func NewLifecycle(log upstream.Log, builder *chunk.Builder, snapshots SnapshotPublisher, blobURIPrefix string) *Lifecycle {
	return &Lifecycle{log: log, builder: builder, snapshots: snapshots, blobURIPrefix: blobURIPrefix}
}

// HandleRecoveryTask validates the requested range, streams and builds the
// chunk, and publishes the snapshot. A false return with a nil error means
// the task was executed to a terminal, non-retryable conclusion (offset
// range unrecoverable); a false return with a non-nil error means a
// transient failure occurred and the task should be left in place for
// reassignment.
func (l *Lifecycle) HandleRecoveryTask(ctx context.Context, task *types.RecoveryTask) (bool, error) {
	logger := log.WithRecoveryTask(task.Name).With().Str("partition_id", task.PartitionID).Logger()

	earliest, err := l.log.EarliestOffset(ctx, task.PartitionID)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return false, err
	}
	latest, err := l.log.LatestOffset(ctx, task.PartitionID)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return false, err
	}

	clamped := offsets.Validate(earliest, latest, task.StartOffset, task.EndOffset)
	if clamped == nil {
		metrics.RolloversFailed.Inc()
		logger.Warn().
			Int64("earliest", earliest).Int64("latest", latest).
			Int64("taskStart", task.StartOffset).Int64("taskEnd", task.EndOffset).
			Msg("recovery task offset range is unrecoverable")
		return false, nil
	}

	stream, err := l.log.OpenConsumer(ctx, task.PartitionID, clamped.StartOffset)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return false, err
	}
	bounded := &boundedStream{inner: stream, end: clamped.EndOffset}
	defer bounded.Close()

	snap, err := l.builder.Build(ctx, task.PartitionID, clamped.StartOffset, clamped.EndOffset, l.blobURIPrefix, bounded)
	if err != nil {
		return false, err
	}

	if err := l.snapshots.Publish(ctx, snap); err != nil {
		return false, err
	}

	logger.Info().Str("snapshot", snap.Name).Msg("recovery task produced a snapshot")
	return true, nil
}

// boundedStream delivers messages up to and including offset end. It stops
// after returning the message at end; a message whose offset exceeds end
// (offsets need not be contiguous) ends the stream without being delivered.
type boundedStream struct {
	inner upstream.MessageStream
	end   int64
	done  bool
}

func (b *boundedStream) Next(ctx context.Context) (*upstream.Message, bool, error) {
	if b.done {
		return nil, false, nil
	}
	msg, ok, err := b.inner.Next(ctx)
	if err != nil || !ok {
		return msg, ok, err
	}
	if msg.Offset > b.end {
		b.done = true
		return nil, false, nil
	}
	if msg.Offset == b.end {
		b.done = true
	}
	return msg, true, nil
}

func (b *boundedStream) Close() error { return b.inner.Close() }
