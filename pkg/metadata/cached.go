package metadata

import (
	"context"
	"sync"

	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/types"
)

// CachedRecoveryNodeStore wraps a RecoveryNodeStore with a local snapshot
// kept current by draining the underlying watch channel. List reads the
// snapshot instead of round-tripping to the coordination store, which is
// the read path the recovery-task assignment service polls every tick.
type CachedRecoveryNodeStore struct {
	*RecoveryNodeStore
	mu    sync.RWMutex
	nodes map[string]*types.RecoveryNode
}

// NewCachedRecoveryNodeStore builds the cache and starts its background
// refresh goroutine. The goroutine exits when ctx is canceled.
func NewCachedRecoveryNodeStore(ctx context.Context, client *EtcdClient) (*CachedRecoveryNodeStore, error) {
	c := &CachedRecoveryNodeStore{
		RecoveryNodeStore: NewRecoveryNodeStore(client),
		nodes:             make(map[string]*types.RecoveryNode),
	}
	if err := c.resync(ctx); err != nil {
		return nil, err
	}
	go c.run(ctx)
	return c, nil
}

func (c *CachedRecoveryNodeStore) resync(ctx context.Context) error {
	nodes, err := c.RecoveryNodeStore.List(ctx)
	if err != nil {
		return err
	}
	fresh := make(map[string]*types.RecoveryNode, len(nodes))
	for _, n := range nodes {
		fresh[n.Name] = n
	}
	c.mu.Lock()
	c.nodes = fresh
	c.mu.Unlock()
	return nil
}

// run drains the watch channel into the snapshot, resyncing from a fresh
// List whenever the watch session is lost (etcd compaction, reconnect).
func (c *CachedRecoveryNodeStore) run(ctx context.Context) {
	logger := log.WithComponent("metadata-cache")
	for {
		if ctx.Err() != nil {
			return
		}

		events, done := c.RecoveryNodeStore.Watch(ctx)
	drain:
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					break drain
				}
				c.mu.Lock()
				if ev.Deleted {
					delete(c.nodes, ev.Name)
				} else {
					c.nodes[ev.Name] = ev.Node
				}
				c.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-done:
		case <-ctx.Done():
			return
		}

		if ctx.Err() != nil {
			return
		}
		logger.Warn().Msg("recovery node watch session lost, resyncing")
		if err := c.resync(ctx); err != nil {
			logger.Error().Err(err).Msg("resync after watch loss failed")
		}
	}
}

// List returns the cached snapshot, not a fresh read.
func (c *CachedRecoveryNodeStore) List(ctx context.Context) ([]*types.RecoveryNode, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.RecoveryNode, 0, len(c.nodes))
	for _, n := range c.nodes {
		out = append(out, n)
	}
	return out, nil
}
