// Package metadata adapts the recovery core to a hierarchical, watchable
// coordination store. One sub-store per entity kind, each backed by a
// shared EtcdClient that owns the path-prefix layout.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/mansu/kaldb/pkg/kaldberr"
)

// EtcdClient wraps a clientv3.Client with the cluster's path-prefix layout:
// /<prefix>/recoveryTasks/<name>, /<prefix>/recoveryNodes/<name>,
// /<prefix>/snapshots/<name>, /<prefix>/datasets/<name>.
type EtcdClient struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdClient dials endpoints and returns an EtcdClient rooted at prefix.
func NewEtcdClient(endpoints []string, prefix string) (*EtcdClient, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, kaldberr.NewMetadataStoreError("dial etcd", err)
	}
	return &EtcdClient{client: cli, prefix: prefix}, nil
}

// Close releases the underlying connection.
func (c *EtcdClient) Close() error { return c.client.Close() }

func (c *EtcdClient) dirPath(kind string) string {
	return fmt.Sprintf("/%s/%s/", c.prefix, kind)
}

func (c *EtcdClient) keyPath(kind, name string) string {
	return c.dirPath(kind) + name
}

// create writes value under kind/name, failing with AlreadyExistsError if
// an entry already exists at that key (checked via the key's create
// revision inside a transaction so the check-and-set is atomic).
func (c *EtcdClient) create(ctx context.Context, kind, name string, value any) error {
	key := c.keyPath(kind, name)
	data, err := json.Marshal(value)
	if err != nil {
		return kaldberr.NewMetadataStoreError("marshal", err)
	}

	resp, err := c.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return kaldberr.NewMetadataStoreError("create", err)
	}
	if !resp.Succeeded {
		return &kaldberr.AlreadyExistsError{Kind: kind, Name: name}
	}
	return nil
}

// update overwrites the value at kind/name unconditionally. KalDB's entity
// records are owned by a single writer at a time (the assigning manager,
// the owning recovery node), so a blind put is safe without needing
// optimistic-concurrency retries.
func (c *EtcdClient) update(ctx context.Context, kind, name string, value any) error {
	key := c.keyPath(kind, name)
	data, err := json.Marshal(value)
	if err != nil {
		return kaldberr.NewMetadataStoreError("marshal", err)
	}
	if _, err := c.client.Put(ctx, key, string(data)); err != nil {
		return kaldberr.NewMetadataStoreError("update", err)
	}
	return nil
}

func (c *EtcdClient) delete(ctx context.Context, kind, name string) error {
	key := c.keyPath(kind, name)
	resp, err := c.client.Delete(ctx, key)
	if err != nil {
		return kaldberr.NewMetadataStoreError("delete", err)
	}
	if resp.Deleted == 0 {
		return &kaldberr.NotFoundError{Kind: kind, Name: name}
	}
	return nil
}

func (c *EtcdClient) get(ctx context.Context, kind, name string, out any) error {
	key := c.keyPath(kind, name)
	resp, err := c.client.Get(ctx, key)
	if err != nil {
		return kaldberr.NewMetadataStoreError("get", err)
	}
	if len(resp.Kvs) == 0 {
		return &kaldberr.NotFoundError{Kind: kind, Name: name}
	}
	if err := json.Unmarshal(resp.Kvs[0].Value, out); err != nil {
		return kaldberr.NewMetadataStoreError("unmarshal", err)
	}
	return nil
}

// list returns the raw values of every entry under kind, in whatever order
// etcd returns the range scan.
func (c *EtcdClient) list(ctx context.Context, kind string) ([][]byte, error) {
	resp, err := c.client.Get(ctx, c.dirPath(kind), clientv3.WithPrefix())
	if err != nil {
		return nil, kaldberr.NewMetadataStoreError("list", err)
	}
	out := make([][]byte, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out = append(out, kv.Value)
	}
	return out, nil
}

// watch registers a watch on kind's directory and delivers raw PUT/DELETE
// events until ctx is canceled. A watcher that loses its session (etcd
// closes the channel, e.g. on compaction) closes the done channel so the
// caller can resync via list() and re-arm.
type watchEvent struct {
	kind    string
	name    string
	deleted bool
	value   []byte
}

func (c *EtcdClient) watch(ctx context.Context, kind string) (<-chan watchEvent, <-chan struct{}) {
	out := make(chan watchEvent, 16)
	done := make(chan struct{})
	prefix := c.dirPath(kind)

	wch := c.client.Watch(ctx, prefix, clientv3.WithPrefix())
	go func() {
		defer close(out)
		defer close(done)
		for resp := range wch {
			if resp.Canceled {
				return
			}
			for _, ev := range resp.Events {
				name := string(ev.Kv.Key)[len(prefix):]
				out <- watchEvent{
					kind:    kind,
					name:    name,
					deleted: ev.Type == clientv3.EventTypeDelete,
					value:   ev.Kv.Value,
				}
			}
		}
	}()

	return out, done
}
