// Package main implements the sys2 CLI: a hybrid symbolic / holographic
// reasoning engine driven by .sys2 theory files.
//
// Commands:
//   - cmd_run.go   - runCmd: learn files/packs and execute their goals
//   - cmd_query.go - queryCmd: learn then answer a single goal
//   - cmd_check.go - checkCmd: static DSL validation
//   - stats.go     - exit-code mapping, stats rendering
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sys2/internal/config"
	"sys2/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	strategy   string
	geometry   int
	priority   string
	strict     bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sys2",
	Short: "sys2 - hybrid symbolic/holographic reasoning engine",
	Long: `sys2 learns theories written in the .sys2 declarative language, stores
both a classical fact graph and a vector-symbolic superposition of its
content, and answers queries by chained symbolic inference combined with
approximate holographic decoding.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if strategy != "" {
			cfg.Session.HDCStrategy = strategy
		}
		if geometry > 0 {
			cfg.Session.Geometry = geometry
		}
		if priority != "" {
			cfg.Session.ReasoningPriority = priority
		}
		if strict {
			cfg.Session.StrictIdentifiers = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logging.Initialize(cfg.Logging.Dir, cfg.Logging.DebugMode || verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sys2.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "hdc strategy override")
	rootCmd.PersistentFlags().IntVar(&geometry, "geometry", 0, "vector geometry override")
	rootCmd.PersistentFlags().StringVar(&priority, "priority", "", "reasoning priority override (symbolic|holographic)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "strict identifier mode")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupted
		fmt.Fprintln(os.Stderr, "interrupted")
		os.Exit(exitInterrupted)
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
