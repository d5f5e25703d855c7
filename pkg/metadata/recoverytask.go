package metadata

import (
	"context"
	"encoding/json"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/types"
)

const kindRecoveryTasks = "recoveryTasks"

// RecoveryTaskStore is the metadata sub-store for types.RecoveryTask.
type RecoveryTaskStore struct {
	client *EtcdClient
}

// NewRecoveryTaskStore binds a RecoveryTaskStore to client.
func NewRecoveryTaskStore(client *EtcdClient) *RecoveryTaskStore {
	return &RecoveryTaskStore{client: client}
}

func (s *RecoveryTaskStore) Create(ctx context.Context, task *types.RecoveryTask) error {
	return s.client.create(ctx, kindRecoveryTasks, task.Name, task)
}

// Update is unused in steady state: recovery tasks are immutable once
// created and are only ever deleted, never mutated. Provided for interface
// symmetry with the other sub-stores.
func (s *RecoveryTaskStore) Update(ctx context.Context, task *types.RecoveryTask) error {
	return s.client.update(ctx, kindRecoveryTasks, task.Name, task)
}

func (s *RecoveryTaskStore) Delete(ctx context.Context, name string) error {
	return s.client.delete(ctx, kindRecoveryTasks, name)
}

func (s *RecoveryTaskStore) Get(ctx context.Context, name string) (*types.RecoveryTask, error) {
	var task types.RecoveryTask
	if err := s.client.get(ctx, kindRecoveryTasks, name, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *RecoveryTaskStore) List(ctx context.Context) ([]*types.RecoveryTask, error) {
	raw, err := s.client.list(ctx, kindRecoveryTasks)
	if err != nil {
		return nil, err
	}
	out := make([]*types.RecoveryTask, 0, len(raw))
	for _, data := range raw {
		var task types.RecoveryTask
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, kaldberr.NewMetadataStoreError("unmarshal recoveryTask", err)
		}
		out = append(out, &task)
	}
	return out, nil
}

// RecoveryTaskEvent is delivered by Watch on a create or delete of an entry
// under recoveryTasks/.
type RecoveryTaskEvent struct {
	Name    string
	Deleted bool
	Task    *types.RecoveryTask
}

// Watch streams create/delete events for the recoveryTasks directory until
// ctx is canceled. The returned done channel closes if the underlying watch
// session is lost; callers must List and re-Watch to resync.
func (s *RecoveryTaskStore) Watch(ctx context.Context) (<-chan RecoveryTaskEvent, <-chan struct{}) {
	raw, done := s.client.watch(ctx, kindRecoveryTasks)
	out := make(chan RecoveryTaskEvent, 16)
	go func() {
		defer close(out)
		for ev := range raw {
			if ev.deleted {
				out <- RecoveryTaskEvent{Name: ev.name, Deleted: true}
				continue
			}
			var task types.RecoveryTask
			if err := json.Unmarshal(ev.value, &task); err != nil {
				continue
			}
			out <- RecoveryTaskEvent{Name: ev.name, Task: &task}
		}
	}()
	return out, done
}
