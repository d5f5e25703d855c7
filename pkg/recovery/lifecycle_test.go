package recovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/blob"
	"github.com/mansu/kaldb/pkg/chunk"
	"github.com/mansu/kaldb/pkg/types"
	"github.com/mansu/kaldb/pkg/upstream"
)

type fakeSnapshotPublisher struct {
	published []*types.Snapshot
}

func (f *fakeSnapshotPublisher) Publish(ctx context.Context, snap *types.Snapshot) error {
	f.published = append(f.published, snap)
	return nil
}

func TestHandleRecoveryTaskEntirelyInsideProducesSnapshot(t *testing.T) {
	ctx := context.Background()
	log := upstream.NewFakeLog()
	for i := 0; i < 10; i++ {
		log.Append("0", nil, []byte(`{"timestamp":1}`), int64(i))
	}

	builder := chunk.NewBuilder(blob.NewMemStore(), t.TempDir())
	publisher := &fakeSnapshotPublisher{}
	life := NewLifecycle(log, builder, publisher, "s3://bucket/")

	task := &types.RecoveryTask{Name: "task-1", PartitionID: "0", StartOffset: 2, EndOffset: 5}
	ok, err := life.HandleRecoveryTask(ctx, task)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, publisher.published, 1)
	require.Equal(t, "0", publisher.published[0].PartitionID)
}

func TestHandleRecoveryTaskEntirelyBeforeIsUnrecoverable(t *testing.T) {
	ctx := context.Background()
	log := upstream.NewFakeLog()
	for i := 0; i < 10; i++ {
		log.Append("0", nil, []byte(`{"timestamp":1}`), int64(i))
	}
	log.Trim("0", 5)

	builder := chunk.NewBuilder(blob.NewMemStore(), t.TempDir())
	life := NewLifecycle(log, builder, &fakeSnapshotPublisher{}, "s3://bucket/")

	task := &types.RecoveryTask{Name: "task-1", PartitionID: "0", StartOffset: 0, EndOffset: 2}
	ok, err := life.HandleRecoveryTask(ctx, task)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHandleRecoveryTaskEntirelyAfterIsUnrecoverable(t *testing.T) {
	ctx := context.Background()
	log := upstream.NewFakeLog()
	log.Append("0", nil, []byte(`{"timestamp":1}`), 0)

	builder := chunk.NewBuilder(blob.NewMemStore(), t.TempDir())
	life := NewLifecycle(log, builder, &fakeSnapshotPublisher{}, "s3://bucket/")

	task := &types.RecoveryTask{Name: "task-1", PartitionID: "0", StartOffset: 100, EndOffset: 200}
	ok, err := life.HandleRecoveryTask(ctx, task)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundedStreamStopsAtEndOffset(t *testing.T) {
	ctx := context.Background()
	log := upstream.NewFakeLog()
	for i := 0; i < 10; i++ {
		log.Append("0", nil, []byte{byte(i)}, int64(i))
	}
	inner, err := log.OpenConsumer(ctx, "0", 0)
	require.NoError(t, err)

	bounded := &boundedStream{inner: inner, end: 3}

	var offsets []int64
	for {
		msg, ok, err := bounded.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		offsets = append(offsets, msg.Offset)
	}
	require.Equal(t, []int64{0, 1, 2, 3}, offsets)
}
