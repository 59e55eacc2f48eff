package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgcompare/pgcompare/cmd/compare"
	"github.com/pgcompare/pgcompare/cmd/history"
	"github.com/pgcompare/pgcompare/internal/logger"
	"github.com/pgcompare/pgcompare/internal/version"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "pgcompare",
	Short: "PostgreSQL schema comparison and drift detection tool",
	Long: fmt.Sprintf(`pgcompare compares schemas across PostgreSQL instances and generates
migration scripts to reconcile them.

Version: %s@%s %s %s

Commands:
  compare   Compare a schema between two instances
  history   Inspect recorded comparison runs

Use "pgcompare [command] --help" for more information about a command.`,
		version.App(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(compare.CompareCmd)
	RootCmd.AddCommand(history.HistoryCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger.SetGlobal(slog.New(handler), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
