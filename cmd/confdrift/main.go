// confdrift compares per-project configuration artifacts against a
// designated reference project and reports semantic drift.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "confdrift",
	Short: "confdrift - semantic configuration drift comparator",
	Long: `confdrift ingests the configuration artifacts of many projects
(CI workflows, pre-commit manifests, packaging manifests, task and docs
scripts), reduces each to a normalized semantic record, and diffs every
project against one designated reference project.

Differences are grouped by kind of drift rather than by project, because
"12 projects disagree on the lint rule set" is one actionable item, not
twelve. Nothing is ever written back to the compared projects.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
