package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/actions"
	"github.com/steveyegge/scout/internal/ai"
	"github.com/steveyegge/scout/internal/config"
	"github.com/steveyegge/scout/internal/events"
	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/handoff"
	"github.com/steveyegge/scout/internal/metrics"
	"github.com/steveyegge/scout/internal/storage"
	"github.com/steveyegge/scout/internal/types"
	"github.com/steveyegge/scout/internal/workspace"
)

// openStore opens the workspace database, creating it on first use.
func openStore(ctx context.Context) (storage.Storage, error) {
	path, err := storage.ResolveDatabase(workspaceRoot, cfg.Database)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(ctx, &storage.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return store, nil
}

// aiConfig maps the file configuration onto the model client.
func aiConfig(c *config.Config, logger *zap.Logger) *ai.Config {
	r := c.Retry
	return &ai.Config{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Retry: ai.RetryConfig{
			MaxRetries:            r.MaxRetries,
			InitialBackoff:        r.InitialBackoff.Std(),
			MaxBackoff:            r.MaxBackoff.Std(),
			BackoffMultiplier:     2.0,
			Timeout:               r.Timeout.Std(),
			CircuitBreakerEnabled: r.CircuitBreaker,
			FailureThreshold:      r.FailureThreshold,
			SuccessThreshold:      r.SuccessThreshold,
			OpenTimeout:           r.OpenTimeout.Std(),
			MaxConcurrentCalls:    r.MaxConcurrentCalls,
		},
		RateLimit: ai.RateLimitConfig{
			RequestsPerMinute: c.RateLimit.RequestsPerMinute,
			Burst:             c.RateLimit.Burst,
		},
		Logger: logger,
	}
}

type exploreOptions struct {
	maxIterations int
	threshold     float64
	planURL       string
	sink          events.Sink
	metrics       *metrics.Recorder
}

// explorer runs one session per goal against the workspace.
type explorer struct {
	orch          *explore.Orchestrator
	root          string
	maxIterations int
}

func (e *explorer) Explore(ctx context.Context, goal string) (*explore.Result, error) {
	session := types.NewSession(goal, e.maxIterations)
	session.Workspace = e.root
	return e.orch.Run(ctx, session)
}

func (e *explorer) RequestStop() { e.orch.RequestStop() }

// newExplorer wires the model client, workspace profile, executor, planner
// and store into an orchestrator.
func newExplorer(ctx context.Context, store storage.Storage, opts exploreOptions) (*explorer, error) {
	client, err := ai.NewClient(aiConfig(cfg, logger))
	if err != nil {
		return nil, err
	}

	builder := workspace.NewBuilder(workspaceRoot, logger)
	builder.ExcludePaths = append(builder.ExcludePaths, cfg.Workspace.Exclude...)
	profile, err := builder.Build(ctx)
	if err != nil {
		// The oracle can still explore without the overview
		logger.Warn("failed to profile workspace", zap.Error(err))
	}

	var planner handoff.Planner
	planURL := opts.planURL
	if planURL == "" {
		planURL = cfg.PlanServiceURL
	}
	if planURL != "" {
		planner = handoff.NewHTTPPlanner(planURL, logger)
	} else {
		planner = ai.NewPlanWriter(client, cfg.PlanModel)
	}

	executor, err := actions.New(workspaceRoot, logger)
	if err != nil {
		return nil, err
	}

	var sinks []events.Sink
	if opts.sink != nil {
		sinks = append(sinks, opts.sink)
	}
	var m explore.Metrics
	if opts.metrics != nil {
		m = opts.metrics
	}
	var st explore.Store
	if store != nil {
		st = store
		sinks = append(sinks, store)
	}

	threshold := opts.threshold
	if threshold <= 0 {
		threshold = cfg.HandoffThreshold
	}
	orch, err := explore.New(explore.Config{
		Oracle:           ai.NewOracle(client, profile.Summary()),
		Executor:         executor,
		Planner:          planner,
		Sink:             events.Multi(sinks...),
		Store:            st,
		Metrics:          m,
		Logger:           logger,
		HandoffThreshold: threshold,
	})
	if err != nil {
		return nil, err
	}

	maxIterations := opts.maxIterations
	if maxIterations <= 0 {
		maxIterations = cfg.MaxIterations
	}
	return &explorer{orch: orch, root: workspaceRoot, maxIterations: maxIterations}, nil
}

// watchInterrupts requests a stop on the first interrupt and cancels the
// returned context on the second.
func watchInterrupts(ctx context.Context, requestStop func()) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	done := make(chan struct{})
	go func() {
		yellow := color.New(color.FgYellow).SprintFunc()
		stopping := false
		for {
			select {
			case <-sigs:
				if stopping {
					fmt.Fprintf(os.Stderr, "\n%s cancelling exploration\n", yellow("⏹"))
					cancel()
					continue
				}
				stopping = true
				fmt.Fprintf(os.Stderr, "\n%s stopping after the current iteration (Ctrl-C again to cancel)\n", yellow("⏸"))
				requestStop()
			case <-done:
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(sigs)
		close(done)
		cancel()
	}
}
