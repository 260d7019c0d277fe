package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/adaptive"
	"github.com/abhisek/pal/internal/config"
	"github.com/abhisek/pal/internal/logger"
	"github.com/abhisek/pal/internal/report"
	"github.com/abhisek/pal/internal/store"
)

var (
	cfg   *config.Config
	log   = zap.NewNop()
	clock = time.Now
)

var rootCmd = &cobra.Command{
	Use:          "pal",
	Short:        "Adaptive difficulty engine for personalized quizzes",
	Long:         "PAL picks the difficulty of each next question from the learner's answers and response times.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (YAML, JSON or TOML)")
	pf.String("db", "", "Path to SQLite database file (overrides PAL_DB env var)")
	pf.String("log-mode", "", "Logger: off, dev or prod (overrides PAL_LOG_MODE)")
	pf.String("log-level", "", "Minimum log level (overrides PAL_LOG_LEVEL)")
	pf.String("variant", "", "Engine variant: hybrid, rl, statistical or baseline")
	pf.Uint64("seed", 0, "Random seed (0 picks one from the clock)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("variant"); v != "" {
		c.Variant = v
		c.Sim.Variant = v
	}
	if flags.Changed("seed") {
		c.Seed, _ = flags.GetUint64("seed")
		c.Sim.Seed = c.Seed
	}
	if v, _ := flags.GetString("log-mode"); v != "" {
		c.Log.Mode = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		c.Log.Level = v
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logger.New(c.Log.Mode, c.Log.Level)
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (PAL_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	if p == "" && cfg != nil {
		p = cfg.Store.Path
	}
	if p == "" {
		var err error
		if p, err = store.DefaultDBPath(); err != nil {
			return "", err
		}
	}
	return p, store.EnsureDir(p)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("opened store", zap.String("path", dbPath))
	return s, nil
}

// seed returns the configured seed, or one from the clock when unset.
func seed() uint64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return uint64(clock().UnixNano())
}

func variant() adaptive.Variant {
	v, _ := adaptive.ParseVariant(cfg.Variant)
	return v
}

func printer(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(cmd.OutOrStdout())
}
