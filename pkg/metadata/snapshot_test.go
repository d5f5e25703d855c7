package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/types"
)

// overlapsTimeRange mirrors the predicate in SnapshotStore.ListByTimeRange.
func overlapsTimeRange(s *types.Snapshot, fromEpochMs, toEpochMs int64) bool {
	return s.StartTimeEpochMs <= toEpochMs && s.EndTimeEpochMs >= fromEpochMs
}

func TestSnapshotTimeRangeOverlapPredicate(t *testing.T) {
	s := &types.Snapshot{StartTimeEpochMs: 100, EndTimeEpochMs: 200}

	require.True(t, overlapsTimeRange(s, 150, 300))
	require.True(t, overlapsTimeRange(s, 0, 150))
	require.True(t, overlapsTimeRange(s, 100, 200))
	require.False(t, overlapsTimeRange(s, 201, 300))
	require.False(t, overlapsTimeRange(s, 0, 99))
}
