package metadata

import (
	"context"
	"encoding/json"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/types"
)

const kindRecoveryNodes = "recoveryNodes"

// RecoveryNodeStore is the metadata sub-store for types.RecoveryNode.
type RecoveryNodeStore struct {
	client *EtcdClient
}

// NewRecoveryNodeStore binds a RecoveryNodeStore to client.
func NewRecoveryNodeStore(client *EtcdClient) *RecoveryNodeStore {
	return &RecoveryNodeStore{client: client}
}

func (s *RecoveryNodeStore) Create(ctx context.Context, node *types.RecoveryNode) error {
	return s.client.create(ctx, kindRecoveryNodes, node.Name, node)
}

// Update persists node's state transition (FREE/ASSIGNED/RECOVERING). Two
// writers use it: the manager's assignment service (FREE -> ASSIGNED) and
// the owning recovery node (ASSIGNED -> RECOVERING -> FREE).
func (s *RecoveryNodeStore) Update(ctx context.Context, node *types.RecoveryNode) error {
	return s.client.update(ctx, kindRecoveryNodes, node.Name, node)
}

func (s *RecoveryNodeStore) Delete(ctx context.Context, name string) error {
	return s.client.delete(ctx, kindRecoveryNodes, name)
}

func (s *RecoveryNodeStore) Get(ctx context.Context, name string) (*types.RecoveryNode, error) {
	var node types.RecoveryNode
	if err := s.client.get(ctx, kindRecoveryNodes, name, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *RecoveryNodeStore) List(ctx context.Context) ([]*types.RecoveryNode, error) {
	raw, err := s.client.list(ctx, kindRecoveryNodes)
	if err != nil {
		return nil, err
	}
	out := make([]*types.RecoveryNode, 0, len(raw))
	for _, data := range raw {
		var node types.RecoveryNode
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, kaldberr.NewMetadataStoreError("unmarshal recoveryNode", err)
		}
		out = append(out, &node)
	}
	return out, nil
}

// RecoveryNodeEvent is delivered by Watch on a create/update/delete of an
// entry under recoveryNodes/.
type RecoveryNodeEvent struct {
	Name    string
	Deleted bool
	Node    *types.RecoveryNode
}

// Watch streams events for the recoveryNodes directory until ctx is
// canceled. The assignment service uses this to discover FREE nodes.
func (s *RecoveryNodeStore) Watch(ctx context.Context) (<-chan RecoveryNodeEvent, <-chan struct{}) {
	raw, done := s.client.watch(ctx, kindRecoveryNodes)
	out := make(chan RecoveryNodeEvent, 16)
	go func() {
		defer close(out)
		for ev := range raw {
			if ev.deleted {
				out <- RecoveryNodeEvent{Name: ev.name, Deleted: true}
				continue
			}
			var node types.RecoveryNode
			if err := json.Unmarshal(ev.value, &node); err != nil {
				continue
			}
			out <- RecoveryNodeEvent{Name: ev.name, Node: &node}
		}
	}()
	return out, done
}
