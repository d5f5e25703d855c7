package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mansu/kaldb/pkg/blob"
	"github.com/mansu/kaldb/pkg/chunk"
	"github.com/mansu/kaldb/pkg/config"
	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metadata"
	"github.com/mansu/kaldb/pkg/recovery"
	"github.com/mansu/kaldb/pkg/snapshot"
	"github.com/mansu/kaldb/pkg/upstream"
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Recovery node operations",
}

var recoveryStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a recovery node",
	Long: `Start a recovery node: registers as FREE in the coordination store,
waits for the manager to assign a recovery task, rebuilds the task's offset
range into a chunk, and publishes the resulting snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		nodeID, _ := cmd.Flags().GetString("node-id")
		localDir, _ := cmd.Flags().GetString("local-dir")

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.RequireRecovery(); err != nil {
			return fmt.Errorf("invalid recovery config: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		etcdClient, err := metadata.NewEtcdClient(cfg.Coordination.Endpoints, cfg.Coordination.Prefix)
		if err != nil {
			return fmt.Errorf("connect to coordination store: %w", err)
		}
		defer etcdClient.Close()

		nodeStore := metadata.NewRecoveryNodeStore(etcdClient)
		taskStore := metadata.NewRecoveryTaskStore(etcdClient)
		registry := snapshot.NewRegistry(metadata.NewSnapshotStore(etcdClient))

		kafkaLog, err := upstream.NewKafkaLog(cfg.Upstream.BootstrapServers, cfg.Upstream.Topic)
		if err != nil {
			return fmt.Errorf("connect to upstream log: %w", err)
		}

		blobStore, err := blob.NewS3Store(ctx, cfg.Blob.Region, cfg.Blob.Endpoint, cfg.Blob.AccessKeyID, cfg.Blob.SecretAccessKey)
		if err != nil {
			return fmt.Errorf("connect to blob store: %w", err)
		}

		builder := chunk.NewBuilder(blobStore, localDir)
		blobURIPrefix := fmt.Sprintf("s3://%s/", cfg.Blob.Bucket)
		life := recovery.NewLifecycle(kafkaLog, builder, registry, blobURIPrefix)

		node, err := recovery.NewNode(ctx, nodeID, nodeStore, taskStore, life)
		if err != nil {
			return fmt.Errorf("register recovery node: %w", err)
		}

		logger := log.WithComponent("recovery-cmd")
		logger.Info().Str("node_id", nodeID).Msg("recovery node started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		runErrCh := make(chan error, 1)
		go func() { runErrCh <- node.Run(ctx) }()

		select {
		case <-sigCh:
			logger.Info().Msg("received shutdown signal, draining")
			cancel()
			<-runErrCh
		case err := <-runErrCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("recovery node exited: %w", err)
			}
		}

		logger.Info().Msg("recovery node stopped")
		return nil
	},
}

var recoveryDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Request a graceful shutdown of a running recovery node process",
	Long: `Sends SIGTERM to a recovery node process, triggering the same
drain path as an interrupt: the node's context is canceled, which aborts
the in-flight task (if any) and leaves its record in place, and the node
deregisters from the coordination store before the process exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pidStr, _ := cmd.Flags().GetString("pid")
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return fmt.Errorf("invalid --pid %q: %w", pidStr, err)
		}

		proc, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("find process %d: %w", pid, err)
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("signal process %d: %w", pid, err)
		}

		fmt.Printf("sent drain signal to recovery node pid %d\n", pid)
		return nil
	},
}

func init() {
	recoveryCmd.AddCommand(recoveryStartCmd)
	recoveryCmd.AddCommand(recoveryDrainCmd)

	recoveryStartCmd.Flags().String("node-id", "recovery-1", "Unique recovery node ID")
	recoveryStartCmd.Flags().String("local-dir", "./kaldb-recovery-data", "Scratch directory for in-flight chunk builds")

	recoveryDrainCmd.Flags().String("pid", "", "Process ID of the recovery node to drain")
	recoveryDrainCmd.MarkFlagRequired("pid")
}
