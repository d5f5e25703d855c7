package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metadata"
	"github.com/mansu/kaldb/pkg/metrics"
	"github.com/mansu/kaldb/pkg/types"
)

// NodeStore is the subset of metadata.RecoveryNodeStore the state machine
// needs. metadata.RecoveryNodeStore and metadata.CachedRecoveryNodeStore
// both satisfy it; tests substitute an in-memory fake.
type NodeStore interface {
	Create(ctx context.Context, node *types.RecoveryNode) error
	Update(ctx context.Context, node *types.RecoveryNode) error
	Delete(ctx context.Context, name string) error
	Watch(ctx context.Context) (<-chan metadata.RecoveryNodeEvent, <-chan struct{})
}

// TaskStore is the subset of metadata.RecoveryTaskStore the state machine
// needs.
type TaskStore interface {
	Get(ctx context.Context, name string) (*types.RecoveryTask, error)
	Delete(ctx context.Context, name string) error
}

// Node runs the FREE -> ASSIGNED -> RECOVERING -> FREE state machine for
// one recovery node instance. Watch callbacks deliver ASSIGNED transitions
// into a mailbox channel; a dedicated worker goroutine drains the mailbox
// so a slow or blocking recovery run never stalls the watch dispatch loop.
type Node struct {
	name string

	nodes NodeStore
	tasks TaskStore
	life  *Lifecycle

	mailbox chan string // recoveryTaskName delivered by a watch-observed ASSIGNED transition

	mu      sync.Mutex
	running bool
}

// NewNode registers a fresh FREE entry for name and returns the Node.
func NewNode(ctx context.Context, name string, nodes NodeStore, tasks TaskStore, life *Lifecycle) (*Node, error) {
	n := &Node{
		name:    name,
		nodes:   nodes,
		tasks:   tasks,
		life:    life,
		mailbox: make(chan string, 1),
	}

	if err := nodes.Create(ctx, &types.RecoveryNode{
		Name:              name,
		RecoveryNodeState: types.RecoveryNodeFree,
		UpdatedAtMs:       nowMs(),
	}); err != nil {
		return nil, err
	}
	return n, nil
}

// Run starts the watch-dispatch loop and the dedicated worker goroutine.
// It blocks until ctx is canceled, then deregisters the node and runs a
// LIFO stack of deferred cleanup steps that wait for the watch and the
// worker to finish. If the watch channel closes first, Run returns nil
// without deregistering.
func (n *Node) Run(ctx context.Context) error {
	logger := log.WithComponent("recovery-node").With().Str("node_id", n.name).Logger()

	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.worker(ctx, logger)
	}()
	cleanup = append(cleanup, wg.Wait)

	events, done := n.nodes.Watch(ctx)
	cleanup = append(cleanup, func() { <-done })

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			n.handleWatchEvent(ev, logger)
		case <-ctx.Done():
			delCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := n.nodes.Delete(delCtx, n.name); err != nil {
				logger.Warn().Err(err).Msg("failed to deregister recovery node on shutdown")
			}
			cancel()
			return ctx.Err()
		}
	}
}

// handleWatchEvent runs on the watch-dispatch goroutine; it must never
// block, so it only inspects the event and forwards an ASSIGNED task name
// into the mailbox for the worker to pick up.
func (n *Node) handleWatchEvent(ev metadata.RecoveryNodeEvent, logger zerolog.Logger) {
	if ev.Deleted || ev.Name != n.name || ev.Node == nil {
		return
	}
	if ev.Node.RecoveryNodeState != types.RecoveryNodeAssigned || ev.Node.RecoveryTaskName == "" {
		return
	}

	metrics.RecoveryNodeAssignmentReceived.Inc()
	logger.Info().Str("recovery_task", ev.Node.RecoveryTaskName).Msg("observed ASSIGNED transition")

	select {
	case n.mailbox <- ev.Node.RecoveryTaskName:
	default:
		logger.Warn().Msg("mailbox full, dropping duplicate assignment notification")
	}
}

// worker is the dedicated goroutine that actually runs recovery tasks,
// decoupled from the watch-dispatch loop above.
func (n *Node) worker(ctx context.Context, logger zerolog.Logger) {
	for {
		select {
		case taskName := <-n.mailbox:
			n.runAssignment(ctx, taskName, logger)
		case <-ctx.Done():
			return
		}
	}
}

func (n *Node) runAssignment(ctx context.Context, taskName string, logger zerolog.Logger) {
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	// ASSIGNED -> RECOVERING: internal signal that the node has accepted
	// and started.
	if err := n.nodes.Update(ctx, &types.RecoveryNode{
		Name:              n.name,
		RecoveryNodeState: types.RecoveryNodeRecovering,
		RecoveryTaskName:  taskName,
		UpdatedAtMs:       nowMs(),
	}); err != nil {
		logger.Error().Err(err).Msg("failed to transition to RECOVERING")
		return
	}

	task, err := n.tasks.Get(ctx, taskName)
	succeeded := false
	if err == nil {
		succeeded, err = n.life.HandleRecoveryTask(ctx, task)
	}

	if succeeded {
		if delErr := n.tasks.Delete(ctx, taskName); delErr != nil {
			logger.Warn().Err(delErr).Msg("recovery task succeeded but delete failed")
		}
		metrics.RecoveryNodeAssignmentSuccess.Inc()
		metrics.RecoveryTasksTotal.WithLabelValues("success").Inc()
	} else {
		// Task record is left in place for later reassignment.
		if err != nil {
			logger.Warn().Err(err).Str("recovery_task", taskName).Msg("recovery task failed")
		}
		metrics.RecoveryNodeAssignmentFailed.Inc()
		metrics.RecoveryTasksTotal.WithLabelValues("failed").Inc()
	}

	n.mu.Lock()
	n.running = false
	n.mu.Unlock()

	if updErr := n.nodes.Update(ctx, &types.RecoveryNode{
		Name:              n.name,
		RecoveryNodeState: types.RecoveryNodeFree,
		RecoveryTaskName:  "",
		UpdatedAtMs:       nowMs(),
	}); updErr != nil {
		logger.Error().Err(updErr).Msg("failed to transition back to FREE")
	}
}

// IsRecovering reports whether the node is currently executing a task.
func (n *Node) IsRecovering() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

func nowMs() int64 { return time.Now().UnixMilli() }
