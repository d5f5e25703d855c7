package upstream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeLogAppendAndOffsets(t *testing.T) {
	log := NewFakeLog()

	log.Append("0", nil, []byte("a"), 1)
	log.Append("0", nil, []byte("b"), 2)
	log.Append("0", nil, []byte("c"), 3)

	ctx := context.Background()

	earliest, err := log.EarliestOffset(ctx, "0")
	require.NoError(t, err)
	require.Equal(t, int64(0), earliest)

	latest, err := log.LatestOffset(ctx, "0")
	require.NoError(t, err)
	require.Equal(t, int64(3), latest)
}

func TestFakeLogOpenConsumerReadsBoundedRange(t *testing.T) {
	log := NewFakeLog()
	for i := 0; i < 10; i++ {
		log.Append("0", nil, []byte{byte(i)}, int64(i))
	}

	ctx := context.Background()
	stream, err := log.OpenConsumer(ctx, "0", 3)
	require.NoError(t, err)
	defer stream.Close()

	var got []int64
	for {
		msg, ok, err := stream.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, msg.Offset)
	}
	require.Equal(t, []int64{3, 4, 5, 6, 7, 8, 9}, got)
}

func TestFakeLogTrimAdvancesEarliest(t *testing.T) {
	log := NewFakeLog()
	for i := 0; i < 5; i++ {
		log.Append("0", nil, []byte{byte(i)}, int64(i))
	}
	log.Trim("0", 2)

	ctx := context.Background()
	earliest, err := log.EarliestOffset(ctx, "0")
	require.NoError(t, err)
	require.Equal(t, int64(2), earliest)

	_, err = log.OpenConsumer(ctx, "0", 0)
	require.Error(t, err)
}
