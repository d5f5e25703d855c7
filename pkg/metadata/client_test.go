package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathLayoutMatchesContract(t *testing.T) {
	c := &EtcdClient{prefix: "kaldb"}

	require.Equal(t, "/kaldb/recoveryTasks/", c.dirPath(kindRecoveryTasks))
	require.Equal(t, "/kaldb/recoveryTasks/task-1", c.keyPath(kindRecoveryTasks, "task-1"))

	require.Equal(t, "/kaldb/recoveryNodes/", c.dirPath(kindRecoveryNodes))
	require.Equal(t, "/kaldb/snapshots/", c.dirPath(kindSnapshots))
	require.Equal(t, "/kaldb/datasets/", c.dirPath(kindDatasets))
}
