// Package assign implements the manager-side recovery-task assignment
// service: a periodic scan that pairs unassigned recovery tasks with FREE
// recovery nodes.
package assign

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metrics"
	"github.com/mansu/kaldb/pkg/types"
)

// TaskLister is the subset of metadata.RecoveryTaskStore the assignment
// service reads.
type TaskLister interface {
	List(ctx context.Context) ([]*types.RecoveryTask, error)
}

// NodeListerUpdater is the subset of metadata.RecoveryNodeStore (or
// metadata.CachedRecoveryNodeStore) the assignment service reads and
// writes.
type NodeListerUpdater interface {
	List(ctx context.Context) ([]*types.RecoveryNode, error)
	Update(ctx context.Context, node *types.RecoveryNode) error
}

// Service runs the periodic assignment cycle: a ticker-driven loop with a
// stop channel, one scheduling pass per tick.
type Service struct {
	nodes  NodeListerUpdater
	tasks  TaskLister
	period time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewService builds a Service that scans every period.
func NewService(nodes NodeListerUpdater, tasks TaskLister, period time.Duration) *Service {
	return &Service{
		nodes:  nodes,
		tasks:  tasks,
		period: period,
		stopCh: make(chan struct{}),
	}
}

// Start begins the assignment loop in a new goroutine.
func (s *Service) Start() {
	go s.run()
}

// Stop signals the assignment loop to exit.
func (s *Service) Stop() {
	close(s.stopCh)
}

func (s *Service) run() {
	logger := log.WithComponent("recovery-task-assignment")
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			timer := metrics.NewTimer()
			assigned, err := s.assignOnce(context.Background())
			timer.ObserveDuration(metrics.AssignmentCycleDuration)
			if err != nil {
				logger.Error().Err(err).Msg("assignment cycle failed")
				continue
			}
			if assigned > 0 {
				logger.Info().Int("assigned", assigned).Msg("assignment cycle completed")
			}
		case <-s.stopCh:
			return
		}
	}
}

// assignOnce scans unassigned recovery tasks and FREE recovery nodes and
// pairs them 1:1, oldest task (by CreatedAtMs) first, writing each pairing
// as a FREE -> ASSIGNED update on the node's entry. Returns the number of
// tasks newly paired; the first failed update ends the pass.
func (s *Service) assignOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return 0, err
	}
	nodes, err := s.nodes.List(ctx)
	if err != nil {
		return 0, err
	}

	free := make([]*types.RecoveryNode, 0, len(nodes))
	held := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.RecoveryNodeState == types.RecoveryNodeFree {
			free = append(free, n)
			continue
		}
		if n.RecoveryTaskName != "" {
			held[n.RecoveryTaskName] = struct{}{}
		}
	}

	assignable := make([]*types.RecoveryTask, 0, len(tasks))
	for _, task := range tasks {
		if _, ok := held[task.Name]; !ok {
			assignable = append(assignable, task)
		}
	}
	sort.SliceStable(assignable, func(i, j int) bool {
		return assignable[i].CreatedAtMs < assignable[j].CreatedAtMs
	})

	assigned := 0
	for i, task := range assignable {
		if i >= len(free) {
			break
		}
		node := free[i]
		if err := s.nodes.Update(ctx, &types.RecoveryNode{
			Name:              node.Name,
			RecoveryNodeState: types.RecoveryNodeAssigned,
			RecoveryTaskName:  task.Name,
			UpdatedAtMs:       time.Now().UnixMilli(),
		}); err != nil {
			return assigned, err
		}
		metrics.TasksAssigned.Inc()
		metrics.RecoveryTasksTotal.WithLabelValues("assigned").Inc()
		assigned++
	}

	return assigned, nil
}
