package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/psyhelp/testdesk/internal/config"
	"github.com/psyhelp/testdesk/internal/logger"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg is resolved once per invocation by the root command.
var cfg *config.Config

var rootFlags struct {
	server   string
	user     string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
	); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "testdesk",
	Short: "Take, author and manage psychology tests",
	Long: `testdesk is a terminal client for a psychology test service.

It lists the test catalog, runs test attempts in a full-screen TUI,
creates and edits tests from YAML drafts, and exposes the same
operations as MCP tools. Submitted attempts and catalog changes are
journaled to an embedded NATS JetStream store under the data directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.server, "server", "", "Test service base URL (overrides server_url)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.user, "user", "", "User id (overrides user_id)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveMCPCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.server != "" {
		loaded.ServerURL = rootFlags.server
	}
	if rootFlags.user != "" {
		loaded.UserID = rootFlags.user
	}
	if rootFlags.logLevel != "" {
		loaded.LogLevel = rootFlags.logLevel
	}
	cfg = loaded

	logger.Setup(cfg.LogLevel, cfg.LogFile)
	if cfg.Editor != "" {
		// x/editor reads $EDITOR
		if err := os.Setenv("EDITOR", cfg.Editor); err != nil {
			return fmt.Errorf("failed to set editor: %w", err)
		}
	}
	logger.Debug("Config loaded: server=%s user=%q data_dir=%s", cfg.ServerURL, cfg.UserID, cfg.DataDir)
	return nil
}
