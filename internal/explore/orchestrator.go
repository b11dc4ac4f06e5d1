package explore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/events"
	"github.com/steveyegge/scout/internal/handoff"
	"github.com/steveyegge/scout/internal/knowledge"
	"github.com/steveyegge/scout/internal/types"
)

// Config holds the collaborators of an Orchestrator. Oracle, Executor and
// Planner are required.
type Config struct {
	Oracle   DecisionOracle
	Executor ActionRunner
	Planner  handoff.Planner
	Sink     events.Sink // optional
	Store    Store       // optional
	Metrics  Metrics     // optional
	Logger   *zap.Logger // optional

	// HandoffThreshold overrides DefaultHandoffThreshold when positive.
	HandoffThreshold float64
}

// Orchestrator drives exploration sessions. One session runs at a time.
type Orchestrator struct {
	oracle    DecisionOracle
	executor  ActionRunner
	planner   handoff.Planner
	sink      events.Sink
	store     Store
	metrics   Metrics
	logger    *zap.Logger
	threshold float64
	now       func() time.Time

	running       atomic.Bool
	stopRequested atomic.Bool
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("decision oracle is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("action executor is required")
	}
	if cfg.Planner == nil {
		return nil, fmt.Errorf("planner is required")
	}
	o := &Orchestrator{
		oracle:    cfg.Oracle,
		executor:  cfg.Executor,
		planner:   cfg.Planner,
		sink:      cfg.Sink,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		threshold: cfg.HandoffThreshold,
		now:       time.Now,
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.threshold <= 0 {
		o.threshold = DefaultHandoffThreshold
	}
	o.logger = o.logger.Named("explore")
	return o, nil
}

// RequestStop asks the running session to stop. The request is honored at the
// top of the next iteration; an in-flight oracle call or action completes
// first. A request made before Run starts stops that run before its first
// decision.
func (o *Orchestrator) RequestStop() {
	o.stopRequested.Store(true)
}

// run is the per-Run mutable state.
type run struct {
	session   *types.ExplorationSession
	history   []types.HistoryEntry
	knowledge types.KnowledgeState
	// pending holds the paths touched by the previous iteration's action,
	// merged once the next decision arrives.
	pending knowledge.TouchedPaths
	last    *types.Decision
}

// Run explores until the session terminates. The returned Result is non-nil
// whenever the session was started. The error is non-nil for oracle failures
// (ErrOracle), plan handoff failures (ErrPlanHandoff) and context
// cancellation; a stop request or insufficient understanding is not an error.
func (o *Orchestrator) Run(ctx context.Context, session *types.ExplorationSession) (*Result, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer o.running.Store(false)
	// A stop requested before Run starts applies to this run; the flag is
	// cleared on exit so it never leaks into the next one.
	defer o.stopRequested.Store(false)

	session.Reset(o.now())
	r := &run{session: session, knowledge: types.NewKnowledgeState()}
	ceiling := session.Ceiling()
	log := o.logger.With(zap.String("session_id", session.ID))

	log.Info("exploration started",
		zap.String("goal", session.ImplementationGoal),
		zap.Int("max_iterations", ceiling))
	o.saveSession(ctx, session)
	o.publish(ctx, events.NewSimpleEvent(events.EventTypeSessionStarted, session.ID, 0, events.SeverityInfo,
		fmt.Sprintf("Exploring: %s", session.ImplementationGoal)))

	for {
		if o.stopRequested.Load() {
			return o.abort(ctx, r, "stop requested", nil)
		}
		if err := ctx.Err(); err != nil {
			return o.abort(ctx, r, "", err)
		}

		n := session.CurrentIteration + 1
		session.CurrentIteration = n
		o.publish(ctx, events.NewSimpleEvent(events.EventTypeIterationStarted, session.ID, n, events.SeverityInfo,
			fmt.Sprintf("Iteration %d of at most %d", n, ceiling)))

		decision, err := o.decide(ctx, r, n, ceiling)
		if err != nil {
			log.Error("decision failed", zap.Int("iteration", n), zap.Error(err))
			return o.abort(ctx, r, "", err)
		}
		r.last = decision

		entry := o.recordDecision(ctx, r, n, decision)

		continueExploration := decision.ContinueExploration
		ceilingReached := false
		if n >= ceiling && continueExploration {
			continueExploration = false
			ceilingReached = true
			log.Info("iteration ceiling reached", zap.Int("iteration", n))
		}
		if !continueExploration {
			return o.terminate(ctx, r, ceilingReached)
		}

		o.dispatch(ctx, r, entry, decision.Action)
	}
}

// decide asks the oracle for decision n and validates it.
func (o *Orchestrator) decide(ctx context.Context, r *run, n, ceiling int) (*types.Decision, error) {
	req := DecisionRequest{
		ImplementationGoal:  r.session.ImplementationGoal,
		Iteration:           n,
		MaxIterations:       ceiling,
		History:             cloneHistory(r.history),
		CumulativeKnowledge: r.knowledge.Clone(),
	}

	start := o.now()
	decision, err := o.oracle.Decide(ctx, req)
	if err == nil && decision == nil {
		err = errors.New("oracle returned no decision")
	}
	if err == nil {
		err = types.ValidateDecision(decision)
	}
	o.metrics.ObserveDecision(o.now().Sub(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: iteration %d: %w", ErrOracle, n, err)
	}
	decision.Iteration = n
	return decision, nil
}

// recordDecision appends the history entry for decision n and merges its
// knowledge together with the paths the previous action touched.
func (o *Orchestrator) recordDecision(ctx context.Context, r *run, n int, d *types.Decision) int {
	var summary types.ActionSummary
	if d.Action != nil {
		summary = types.ActionSummary{Type: d.Action.Type(), Target: d.Action.Target()}
	}
	targets := knowledge.Targets(d.Action)
	r.history = append(r.history, types.HistoryEntry{
		Iteration:           n,
		UnderstandingLevel:  d.UnderstandingLevel,
		ActionSummary:       summary,
		KeyFindings:         KeyFindings(d.Thinking),
		ExploredFiles:       nonNil(targets.Files),
		ExploredDirectories: nonNil(targets.Directories),
	})
	entry := len(r.history) - 1

	r.knowledge = knowledge.Merge(r.knowledge, d.CurrentKnowledge, r.pending)
	r.pending = knowledge.TouchedPaths{}

	o.logger.Debug("decision received",
		zap.String("session_id", r.session.ID),
		zap.Int("iteration", n),
		zap.Float64("understanding", d.UnderstandingLevel),
		zap.Bool("continue", d.ContinueExploration),
		zap.String("action", string(summary.Type)),
		zap.String("target", summary.Target))

	if ev, err := events.NewDecisionReceivedEvent(r.session.ID, n,
		fmt.Sprintf("Understanding %.2f", d.UnderstandingLevel),
		events.DecisionReceivedData{
			UnderstandingLevel:  d.UnderstandingLevel,
			ContinueExploration: d.ContinueExploration,
			ActionType:          string(summary.Type),
			Target:              summary.Target,
			Thinking:            d.Thinking,
		}); err == nil {
		o.publish(ctx, ev)
	}
	k := r.knowledge
	if ev, err := events.NewKnowledgeUpdatedEvent(r.session.ID, n,
		fmt.Sprintf("%d confirmed, %d assumptions, %d unknowns", len(k.Confirmed), len(k.Assumptions), len(k.Unknowns)),
		events.KnowledgeUpdatedData{
			Confirmed:           len(k.Confirmed),
			Assumptions:         len(k.Assumptions),
			Unknowns:            len(k.Unknowns),
			ExploredFiles:       len(k.ExploredFiles),
			ExploredDirectories: len(k.ExploredDirectories),
		}); err == nil {
		o.publish(ctx, ev)
	}

	o.saveHistoryEntry(ctx, r.session.ID, r.history[entry])
	o.saveKnowledge(ctx, r.session.ID, r.knowledge)
	return entry
}

// dispatch executes the decision's action and attaches the observation to
// history entry idx.
func (o *Orchestrator) dispatch(ctx context.Context, r *run, idx int, action types.Action) {
	n := r.history[idx].Iteration
	o.publish(ctx, events.NewSimpleEvent(events.EventTypeActionStarted, r.session.ID, n, events.SeverityInfo,
		fmt.Sprintf("%s %s", action.Type(), action.Target())))

	start := o.now()
	result := o.executor.Execute(ctx, action)
	elapsed := o.now().Sub(start)
	o.metrics.ObserveAction(action.Type(), result.Success, elapsed)

	r.history[idx].Observation = &result
	r.history[idx].ActionSummary.Success = result.Success
	r.session.LastObservations = append(r.session.LastObservations, result)
	r.pending = knowledge.Touched(action, &result)

	if !result.Success {
		o.logger.Warn("action failed",
			zap.String("session_id", r.session.ID),
			zap.Int("iteration", n),
			zap.String("action", string(action.Type())),
			zap.String("error", result.Error))
	}

	msg := fmt.Sprintf("%s %s", action.Type(), action.Target())
	if !result.Success {
		msg = fmt.Sprintf("%s failed: %s", msg, result.Error)
	}
	if ev, err := events.NewActionCompletedEvent(r.session.ID, n, msg, events.ActionCompletedData{
		ActionType: string(action.Type()),
		Target:     action.Target(),
		Success:    result.Success,
		Error:      result.Error,
		DurationMs: elapsed.Milliseconds(),
	}); err == nil {
		o.publish(ctx, ev)
	}
	o.saveHistoryEntry(ctx, r.session.ID, r.history[idx])
}

// terminate ends a session whose oracle stopped exploring (or hit the
// ceiling): hand off when understanding is high enough, otherwise report
// insufficient understanding. Neither path retries.
func (o *Orchestrator) terminate(ctx context.Context, r *run, ceilingReached bool) (*Result, error) {
	understanding := r.last.UnderstandingLevel
	if understanding < o.threshold {
		res := o.finish(ctx, r, types.OutcomeInsufficientConfidence, InsufficientUnderstanding, ceilingReached)
		return res, nil
	}

	req := handoff.PlanRequest{
		ImplementationGoal:  r.session.ImplementationGoal,
		HistorySummary:      types.Summarize(r.history),
		CumulativeKnowledge: r.knowledge.Clone(),
	}
	stream, err := o.planner.Handoff(ctx, req)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPlanHandoff, err)
		res := o.finish(ctx, r, types.OutcomeAborted, err.Error(), ceilingReached)
		return res, err
	}

	n := r.session.CurrentIteration
	plan, err := handoff.Collect(ctx, stream, func(text string) {
		o.publish(ctx, events.NewSimpleEvent(events.EventTypePlanChunk, r.session.ID, n, events.SeverityInfo, text))
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPlanHandoff, err)
		res := o.finish(ctx, r, types.OutcomeAborted, err.Error(), ceilingReached)
		res.Plan = plan
		return res, err
	}

	o.savePlan(ctx, r.session.ID, plan)
	res := o.finish(ctx, r, types.OutcomeHandedOff, "", ceilingReached)
	res.Plan = plan
	return res, nil
}

// abort ends the session without a handoff. Paths touched by the last
// executed action are still folded into knowledge.
func (o *Orchestrator) abort(ctx context.Context, r *run, reason string, cause error) (*Result, error) {
	if !r.pending.Empty() {
		r.knowledge = knowledge.AddTouched(r.knowledge, r.pending)
		r.pending = knowledge.TouchedPaths{}
		o.saveKnowledge(ctx, r.session.ID, r.knowledge)
	}
	if cause != nil {
		reason = cause.Error()
	}
	return o.finish(ctx, r, types.OutcomeAborted, reason, false), cause
}

func (o *Orchestrator) finish(ctx context.Context, r *run, outcome types.Outcome, reason string, ceilingReached bool) *Result {
	r.session.Finish(outcome, o.now())

	res := &Result{
		SessionID:      r.session.ID,
		Outcome:        outcome,
		Reason:         reason,
		Iterations:     len(r.history),
		CeilingReached: ceilingReached,
		History:        r.history,
		Knowledge:      r.knowledge,
	}
	if r.last != nil {
		res.UnderstandingLevel = r.last.UnderstandingLevel
	}

	severity := events.SeverityInfo
	switch outcome {
	case types.OutcomeInsufficientConfidence:
		severity = events.SeverityWarning
	case types.OutcomeAborted:
		severity = events.SeverityError
	}
	msg := fmt.Sprintf("Session %s after %d iterations", outcome, res.Iterations)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}

	o.logger.Info("exploration finished",
		zap.String("session_id", r.session.ID),
		zap.String("outcome", string(outcome)),
		zap.Int("iterations", res.Iterations),
		zap.Float64("understanding", res.UnderstandingLevel),
		zap.Bool("ceiling_reached", ceilingReached),
		zap.String("reason", reason))

	if ev, err := events.NewSessionTerminatedEvent(r.session.ID, r.session.CurrentIteration, severity, msg,
		events.SessionTerminatedData{
			Outcome:            string(outcome),
			Iterations:         res.Iterations,
			UnderstandingLevel: res.UnderstandingLevel,
			Reason:             reason,
			CeilingReached:     ceilingReached,
		}); err == nil {
		o.publish(ctx, ev)
	}
	o.metrics.ObserveSession(outcome, res.Iterations)
	o.saveSession(ctx, r.session)
	return res
}

// publish and the save helpers outlive a canceled run context so the
// terminal state is always recorded.

func (o *Orchestrator) publish(ctx context.Context, ev *events.ExplorationEvent) {
	if o.sink == nil {
		return
	}
	if err := o.sink.Publish(context.WithoutCancel(ctx), ev); err != nil {
		o.logger.Warn("failed to publish event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func (o *Orchestrator) saveSession(ctx context.Context, s *types.ExplorationSession) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveSession(context.WithoutCancel(ctx), s); err != nil {
		o.logger.Warn("failed to save session", zap.String("session_id", s.ID), zap.Error(err))
	}
}

func (o *Orchestrator) saveHistoryEntry(ctx context.Context, sessionID string, entry types.HistoryEntry) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveHistoryEntry(context.WithoutCancel(ctx), sessionID, entry); err != nil {
		o.logger.Warn("failed to save history entry",
			zap.String("session_id", sessionID), zap.Int("iteration", entry.Iteration), zap.Error(err))
	}
}

func (o *Orchestrator) saveKnowledge(ctx context.Context, sessionID string, k types.KnowledgeState) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveKnowledge(context.WithoutCancel(ctx), sessionID, k); err != nil {
		o.logger.Warn("failed to save knowledge", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (o *Orchestrator) savePlan(ctx context.Context, sessionID, plan string) {
	if o.store == nil {
		return
	}
	if err := o.store.SavePlan(context.WithoutCancel(ctx), sessionID, plan); err != nil {
		o.logger.Warn("failed to save plan", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// cloneHistory copies entries so the oracle cannot mutate loop state.
// Observations are shared; they are never modified after being attached.
func cloneHistory(in []types.HistoryEntry) []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(in))
	for i, h := range in {
		h.KeyFindings = append([]string(nil), h.KeyFindings...)
		h.ExploredFiles = append([]string(nil), h.ExploredFiles...)
		h.ExploredDirectories = append([]string(nil), h.ExploredDirectories...)
		out[i] = h
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
