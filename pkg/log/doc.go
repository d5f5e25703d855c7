/*
Package log provides structured logging for KalDB using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, a configurable level/format, and helper
functions for the common one-line logging calls used throughout the core.

# Usage

Initializing the logger:

	import "github.com/mansu/kaldb/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers carry the recovery-specific context this codebase cares
about: which component emitted the log, which partition or recovery task it
concerns, and which chunk it produced.

	recoveryLog := log.WithComponent("recovery-node")
	recoveryLog.Info().Str("node_id", nodeID).Msg("registered as FREE")

	taskLog := log.WithRecoveryTask(task.Name).With().Str("partition_id", task.PartitionID).Logger()
	taskLog.Warn().Int64("start", task.StartOffset).Msg("offset range clamped")

# Design

Global Logger pattern: a single package-level zerolog.Logger, initialized
once via Init and read from every package without being passed around
explicitly — the same shape the rest of the ambient stack uses (metrics,
config). Context loggers (With*) return a derived zerolog.Logger value,
never mutate the global one.
*/
package log
