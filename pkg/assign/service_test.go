package assign

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/types"
)

type fakeTaskLister struct {
	tasks []*types.RecoveryTask
}

func (f *fakeTaskLister) List(ctx context.Context) ([]*types.RecoveryTask, error) {
	return f.tasks, nil
}

type fakeNodeListerUpdater struct {
	mu    sync.Mutex
	nodes map[string]*types.RecoveryNode
}

func newFakeNodeListerUpdater(nodes ...*types.RecoveryNode) *fakeNodeListerUpdater {
	f := &fakeNodeListerUpdater{nodes: make(map[string]*types.RecoveryNode)}
	for _, n := range nodes {
		f.nodes[n.Name] = n
	}
	return f
}

func (f *fakeNodeListerUpdater) List(ctx context.Context) ([]*types.RecoveryNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.RecoveryNode, 0, len(f.nodes))
	for _, n := range f.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNodeListerUpdater) Update(ctx context.Context, node *types.RecoveryNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[node.Name] = node
	return nil
}

func TestAssignOncePairsTasksToFreeNodes(t *testing.T) {
	tasks := &fakeTaskLister{tasks: []*types.RecoveryTask{
		{Name: "task-1", PartitionID: "0"},
		{Name: "task-2", PartitionID: "1"},
	}}
	nodes := newFakeNodeListerUpdater(
		&types.RecoveryNode{Name: "node-1", RecoveryNodeState: types.RecoveryNodeFree},
		&types.RecoveryNode{Name: "node-2", RecoveryNodeState: types.RecoveryNodeRecovering, RecoveryTaskName: "task-0"},
	)

	svc := NewService(nodes, tasks, 0)
	assigned, err := svc.assignOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, assigned)

	list, err := nodes.List(context.Background())
	require.NoError(t, err)

	var freeNode, recoveringNode *types.RecoveryNode
	for _, n := range list {
		switch n.Name {
		case "node-1":
			freeNode = n
		case "node-2":
			recoveringNode = n
		}
	}
	require.Equal(t, types.RecoveryNodeAssigned, freeNode.RecoveryNodeState)
	require.Equal(t, types.RecoveryNodeRecovering, recoveringNode.RecoveryNodeState)
	require.Equal(t, "task-0", recoveringNode.RecoveryTaskName)
}

func TestAssignOnceExcludesTaskAlreadyHeldByANode(t *testing.T) {
	tasks := &fakeTaskLister{tasks: []*types.RecoveryTask{
		{Name: "task-0", PartitionID: "0"},
		{Name: "task-1", PartitionID: "1"},
	}}
	nodes := newFakeNodeListerUpdater(
		&types.RecoveryNode{Name: "node-1", RecoveryNodeState: types.RecoveryNodeFree},
		&types.RecoveryNode{Name: "node-2", RecoveryNodeState: types.RecoveryNodeRecovering, RecoveryTaskName: "task-0"},
	)

	svc := NewService(nodes, tasks, 0)
	assigned, err := svc.assignOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, assigned)

	list, err := nodes.List(context.Background())
	require.NoError(t, err)

	var freeNode, recoveringNode *types.RecoveryNode
	for _, n := range list {
		switch n.Name {
		case "node-1":
			freeNode = n
		case "node-2":
			recoveringNode = n
		}
	}
	require.Equal(t, types.RecoveryNodeAssigned, freeNode.RecoveryNodeState)
	require.Equal(t, "task-1", freeNode.RecoveryTaskName, "task-0 is already held by node-2 and must not be handed out again")
	require.Equal(t, types.RecoveryNodeRecovering, recoveringNode.RecoveryNodeState)
	require.Equal(t, "task-0", recoveringNode.RecoveryTaskName)
}

func TestAssignOnceNoFreeNodesAssignsNothing(t *testing.T) {
	tasks := &fakeTaskLister{tasks: []*types.RecoveryTask{{Name: "task-1"}}}
	nodes := newFakeNodeListerUpdater(
		&types.RecoveryNode{Name: "node-1", RecoveryNodeState: types.RecoveryNodeRecovering, RecoveryTaskName: "task-x"},
	)

	svc := NewService(nodes, tasks, 0)
	assigned, err := svc.assignOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, assigned)
}

func TestAssignOnceMoreTasksThanFreeNodesAssignsWhatItCan(t *testing.T) {
	tasks := &fakeTaskLister{tasks: []*types.RecoveryTask{
		{Name: "task-1"}, {Name: "task-2"}, {Name: "task-3"},
	}}
	nodes := newFakeNodeListerUpdater(
		&types.RecoveryNode{Name: "node-1", RecoveryNodeState: types.RecoveryNodeFree},
	)

	svc := NewService(nodes, tasks, 0)
	assigned, err := svc.assignOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, assigned)
}
