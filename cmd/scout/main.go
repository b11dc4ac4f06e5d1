package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/steveyegge/scout/internal/config"
)

var (
	// Global flags
	verbose       bool
	workspaceFlag string
	configFlag    string
	dbFlag        string

	// Set by the root command before any subcommand runs
	workspaceRoot string
	cfg           *config.Config
	logger        *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Explore an unfamiliar repository until a change can be planned",
	Long: `scout asks a language model what to inspect next in a repository,
runs that inspection (reading files, listing directories, searching content,
running read-only commands), and accumulates knowledge until it understands
the code well enough to hand the goal to a planner.

Run 'scout init' once per repository to create .scout/config.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws := workspaceFlag
		if ws == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			ws = cwd
		}
		abs, err := filepath.Abs(ws)
		if err != nil {
			return fmt.Errorf("failed to resolve workspace: %w", err)
		}
		workspaceRoot = abs

		path := configFlag
		if path == "" {
			path = config.Path(workspaceRoot)
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if dbFlag != "" {
			cfg.Database = dbFlag
		}

		logger, err = newLogger(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds a production logger writing to stderr. Verbose forces
// debug level over the configured one.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.Encoding = "console"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "C", "", "Repository to explore (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: <workspace>/.scout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database path (default: <workspace>/.scout/scout.db)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
