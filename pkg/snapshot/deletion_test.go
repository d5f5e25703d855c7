package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/types"
)

func TestSnapshotsOlderThanFiltersByEndTime(t *testing.T) {
	snaps := []*types.Snapshot{
		{Name: "old-1", EndTimeEpochMs: 1_000},
		{Name: "old-2", EndTimeEpochMs: 1_999},
		{Name: "new-1", EndTimeEpochMs: 2_000},
		{Name: "new-2", EndTimeEpochMs: 5_000},
	}

	pruned := snapshotsOlderThan(snaps, 2_000)
	require.Len(t, pruned, 2)
	require.Equal(t, "old-1", pruned[0].Name)
	require.Equal(t, "old-2", pruned[1].Name)
}

func TestSnapshotsOlderThanEmptyWhenAllCurrent(t *testing.T) {
	snaps := []*types.Snapshot{
		{Name: "new-1", EndTimeEpochMs: 10_000},
	}
	require.Empty(t, snapshotsOlderThan(snaps, 5_000))
}
