package recovery

import (
	"context"
	"sync"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/metadata"
	"github.com/mansu/kaldb/pkg/types"
)

// fakeNodeStore and fakeTaskStore are in-memory NodeStore/TaskStore
// implementations for exercising the recovery node state machine without a
// live etcd instance.

type fakeNodeStore struct {
	mu     sync.Mutex
	nodes  map[string]*types.RecoveryNode
	events chan metadata.RecoveryNodeEvent
	done   chan struct{}
}

func newFakeNodeStore() *fakeNodeStore {
	return &fakeNodeStore{
		nodes:  make(map[string]*types.RecoveryNode),
		events: make(chan metadata.RecoveryNodeEvent, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeNodeStore) Create(ctx context.Context, node *types.RecoveryNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.Name]; exists {
		return &kaldberr.AlreadyExistsError{Kind: "recoveryNode", Name: node.Name}
	}
	s.nodes[node.Name] = node
	return nil
}

func (s *fakeNodeStore) Update(ctx context.Context, node *types.RecoveryNode) error {
	s.mu.Lock()
	s.nodes[node.Name] = node
	s.mu.Unlock()
	s.events <- metadata.RecoveryNodeEvent{Name: node.Name, Node: node}
	return nil
}

func (s *fakeNodeStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, name)
	return nil
}

func (s *fakeNodeStore) Watch(ctx context.Context) (<-chan metadata.RecoveryNodeEvent, <-chan struct{}) {
	go func() {
		<-ctx.Done()
		close(s.done)
	}()
	return s.events, s.done
}

func (s *fakeNodeStore) get(name string) *types.RecoveryNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[name]
}

// assign simulates the manager's FREE -> ASSIGNED write, delivered to the
// node through the same watch channel Update publishes on.
func (s *fakeNodeStore) assign(name, taskName string) {
	node := &types.RecoveryNode{
		Name:              name,
		RecoveryNodeState: types.RecoveryNodeAssigned,
		RecoveryTaskName:  taskName,
	}
	s.mu.Lock()
	s.nodes[name] = node
	s.mu.Unlock()
	s.events <- metadata.RecoveryNodeEvent{Name: name, Node: node}
}

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*types.RecoveryTask
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*types.RecoveryTask)}
}

func (s *fakeTaskStore) put(task *types.RecoveryTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.Name] = task
}

func (s *fakeTaskStore) Get(ctx context.Context, name string) (*types.RecoveryTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[name]
	if !ok {
		return nil, &kaldberr.NotFoundError{Kind: "recoveryTask", Name: name}
	}
	return task, nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[name]; !ok {
		return &kaldberr.NotFoundError{Kind: "recoveryTask", Name: name}
	}
	delete(s.tasks, name)
	return nil
}

func (s *fakeTaskStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}
