package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/blob"
	"github.com/mansu/kaldb/pkg/upstream"
)

func TestBuilderBuildPublishesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	builder := NewBuilder(store, t.TempDir())

	log := upstream.NewFakeLog()
	log.Append("0", nil, []byte(`{"timestamp":1000,"msg":"a"}`), 1000)
	log.Append("0", nil, []byte(`{"timestamp":2000,"msg":"b"}`), 2000)
	log.Append("0", nil, []byte(`not json`), 3000)

	stream, err := log.OpenConsumer(ctx, "0", 0)
	require.NoError(t, err)
	defer stream.Close()

	snap, err := builder.Build(ctx, "0", 0, 2, "s3://bucket/chunks/", stream)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, "0", snap.PartitionID)
	require.Equal(t, int64(1000), snap.StartTimeEpochMs)
	require.Equal(t, int64(2000), snap.EndTimeEpochMs)
	require.Equal(t, int64(1), snap.MaxOffset)
	require.True(t, strings.HasPrefix(snap.Name, "0-0-2-"), "chunk id must follow <partitionId>-<startOffset>-<endOffset>-<uuidv4>, got %q", snap.Name)

	exists, err := store.Exists(ctx, snap.SnapshotPath)
	require.NoError(t, err)
	require.True(t, exists)

	objs, err := store.List(ctx, snap.SnapshotPath, true)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(objs), 2, "blob store must hold at least an index segment and a metadata record")
}

func TestBuilderBuildWithNoMessages(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemStore()
	builder := NewBuilder(store, t.TempDir())

	log := upstream.NewFakeLog()
	stream, err := log.OpenConsumer(ctx, "0", 0)
	require.NoError(t, err)
	defer stream.Close()

	snap, err := builder.Build(ctx, "0", 0, 0, "s3://bucket/chunks/", stream)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, int64(0), snap.MaxOffset)
}
