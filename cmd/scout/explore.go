package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/display"
	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/metrics"
)

var (
	exploreMaxIterations int
	exploreThreshold     float64
	explorePlanURL       string
	exploreMetricsAddr   string
	exploreJSON          bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore <goal>",
	Short: "Explore the repository for an implementation goal",
	Long: `Explore the workspace until the model understands it well enough to plan
the goal, then stream an implementation plan.

The session ends when the model stops exploring or the iteration ceiling is
reached. With understanding at or above the handoff threshold the session is
handed to the planner; below it, scout reports that manual intervention is
needed. Ctrl-C stops after the current iteration; a second Ctrl-C cancels.

Examples:
  scout explore "add rate limiting to the public API"
  scout explore --max-iterations 10 "support YAML config files"
  scout explore --plan-url http://localhost:8080/plan "add OAuth login"
  scout explore --metrics-addr :9090 "split the storage package"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.TrimSpace(strings.Join(args, " "))
		if goal == "" {
			return fmt.Errorf("goal cannot be empty")
		}
		if exploreThreshold < 0 || exploreThreshold > 1 {
			return fmt.Errorf("--threshold must be within (0,1] (got %v)", exploreThreshold)
		}

		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := exploreOptions{
			maxIterations: exploreMaxIterations,
			threshold:     exploreThreshold,
			planURL:       explorePlanURL,
		}
		if !exploreJSON {
			opts.sink = display.NewPrinter(os.Stdout, verbose)
		}
		if exploreMetricsAddr != "" {
			opts.metrics = metrics.New()
			metricsCtx, stopMetrics := context.WithCancel(ctx)
			defer stopMetrics()
			go func() {
				if err := opts.metrics.Serve(metricsCtx, exploreMetricsAddr, logger); err != nil {
					logger.Error("metrics server failed", zap.Error(err))
				}
			}()
		}

		ex, err := newExplorer(ctx, store, opts)
		if err != nil {
			return err
		}

		runCtx, stop := watchInterrupts(ctx, ex.RequestStop)
		defer stop()

		res, runErr := ex.Explore(runCtx, goal)
		if exploreJSON {
			if err := writeResultJSON(res, runErr); err != nil {
				return err
			}
		} else {
			display.PrintResult(os.Stdout, res)
		}
		return runErr
	},
}

// resultJSON is the --json output of a finished run.
type resultJSON struct {
	*explore.Result
	Error string `json:"error,omitempty"`
}

func writeResultJSON(res *explore.Result, runErr error) error {
	out := resultJSON{Result: res}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().IntVar(&exploreMaxIterations, "max-iterations", 0, "Iteration ceiling (default: max_iterations from config)")
	exploreCmd.Flags().Float64Var(&exploreThreshold, "threshold", 0, "Understanding needed for plan handoff (default: handoff_threshold from config)")
	exploreCmd.Flags().StringVar(&explorePlanURL, "plan-url", "", "Stream the plan from this service instead of the model")
	exploreCmd.Flags().StringVar(&exploreMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while exploring")
	exploreCmd.Flags().BoolVar(&exploreJSON, "json", false, "Print the result as JSON instead of progress lines")
}
