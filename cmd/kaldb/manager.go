package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mansu/kaldb/pkg/assign"
	"github.com/mansu/kaldb/pkg/config"
	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metadata"
	"github.com/mansu/kaldb/pkg/snapshot"
)

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Manager operations",
}

var managerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the recovery-task assignment and snapshot-deletion services",
	Long: `Start the manager's two periodic background services: the
recovery-task assignment service, which pairs unassigned recovery tasks
with FREE recovery nodes on a fixed schedule, and the snapshot-deletion
service, which prunes snapshot records past their configured lifespan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.RequireManager(); err != nil {
			return fmt.Errorf("invalid manager config: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		etcdClient, err := metadata.NewEtcdClient(cfg.Coordination.Endpoints, cfg.Coordination.Prefix)
		if err != nil {
			return fmt.Errorf("connect to coordination store: %w", err)
		}
		defer etcdClient.Close()

		cachedNodes, err := metadata.NewCachedRecoveryNodeStore(ctx, etcdClient)
		if err != nil {
			return fmt.Errorf("start recovery node cache: %w", err)
		}
		taskStore := metadata.NewRecoveryTaskStore(etcdClient)

		schedulePeriod := time.Duration(cfg.Manager.SchedulePeriodMins) * time.Minute
		assignSvc := assign.NewService(cachedNodes, taskStore, schedulePeriod)
		assignSvc.Start()
		defer assignSvc.Stop()

		lifespanHours := cfg.Manager.SnapshotLifespanHours
		if lifespanHours <= 0 {
			lifespanHours = config.DefaultSnapshotLifespanHours
		}
		deletionSvc := snapshot.NewDeletionService(
			metadata.NewSnapshotStore(etcdClient),
			time.Duration(lifespanHours)*time.Hour,
			schedulePeriod,
		)
		deletionSvc.Start()
		defer deletionSvc.Stop()

		logger := log.WithComponent("manager-cmd")
		logger.Info().
			Int("schedule_period_mins", cfg.Manager.SchedulePeriodMins).
			Int("snapshot_lifespan_hours", lifespanHours).
			Msg("manager started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("manager shutting down")
		return nil
	},
}

func init() {
	managerCmd.AddCommand(managerStartCmd)
}
