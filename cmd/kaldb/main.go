package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mansu/kaldb/pkg/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kaldb",
	Short: "KalDB recovery core - rebuilds missed partition ranges into queryable snapshots",
	Long: `kaldb runs one of KalDB's cooperating node roles out of a single binary:
recovery rebuilds bounded, immutable offset ranges an indexer failed to
cover in real time; manager pairs pending recovery tasks with free
recovery nodes. The remaining roles (index, query, cache, preprocessor)
are named here but not implemented in this build.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "kaldb.yaml", "Path to the KalDB config file")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(recoveryCmd)
	rootCmd.AddCommand(managerCmd)
	rootCmd.AddCommand(roleStubCmd("index", "INDEX"))
	rootCmd.AddCommand(roleStubCmd("query", "QUERY"))
	rootCmd.AddCommand(roleStubCmd("cache", "CACHE"))
	rootCmd.AddCommand(roleStubCmd("preprocessor", "PREPROCESSOR"))
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// roleStubCmd returns a subcommand for a node role this build does not
// implement: the search fan-out, full-text index engine, and preprocessor
// stream job. It logs and exits rather than failing outright so operators
// can script against the full role list before every role ships.
func roleStubCmd(use, role string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s node operations (not implemented in this build)", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.WithComponent(use).Warn().Str("role", role).Msg("role not implemented in this build")
			return nil
		},
	}
}
