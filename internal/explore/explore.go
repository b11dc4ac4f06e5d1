// Package explore runs the exploration loop: ask the decision oracle what to
// inspect, execute it, fold what was learned into cumulative knowledge, and
// repeat until the oracle is done or the iteration ceiling is reached.
package explore

import (
	"context"
	"errors"
	"time"

	"github.com/steveyegge/scout/internal/types"
)

// DefaultHandoffThreshold is the understanding level at or above which a
// finished session is handed to the plan generator.
const DefaultHandoffThreshold = 0.7

// InsufficientUnderstanding is the termination reason when the oracle stops
// below the handoff threshold.
const InsufficientUnderstanding = "insufficient understanding, manual intervention required"

var (
	// ErrOracle wraps any failure to obtain a valid decision. It is fatal.
	ErrOracle = errors.New("decision oracle failed")

	// ErrPlanHandoff wraps failures starting or consuming the plan stream.
	ErrPlanHandoff = errors.New("plan handoff failed")

	// ErrAlreadyRunning is returned when Run is called on a busy orchestrator.
	ErrAlreadyRunning = errors.New("exploration already running")
)

// DecisionRequest is everything the oracle sees when asked for a decision.
type DecisionRequest struct {
	ImplementationGoal  string
	Iteration           int
	MaxIterations       int
	History             []types.HistoryEntry
	CumulativeKnowledge types.KnowledgeState
}

// DecisionOracle decides what to inspect next.
type DecisionOracle interface {
	Decide(ctx context.Context, req DecisionRequest) (*types.Decision, error)
}

// ActionRunner executes one action. Failures are reported in the result.
type ActionRunner interface {
	Execute(ctx context.Context, action types.Action) types.ActionResult
}

// Store persists session progress. Errors are logged and never stop a run.
type Store interface {
	SaveSession(ctx context.Context, session *types.ExplorationSession) error
	SaveHistoryEntry(ctx context.Context, sessionID string, entry types.HistoryEntry) error
	SaveKnowledge(ctx context.Context, sessionID string, knowledge types.KnowledgeState) error
	SavePlan(ctx context.Context, sessionID string, plan string) error
}

// Metrics receives loop measurements.
type Metrics interface {
	ObserveDecision(duration time.Duration, err error)
	ObserveAction(actionType types.ActionType, success bool, duration time.Duration)
	ObserveSession(outcome types.Outcome, iterations int)
}

// Result is the final state of one Run.
type Result struct {
	SessionID          string
	Outcome            types.Outcome
	Reason             string
	Iterations         int
	UnderstandingLevel float64
	CeilingReached     bool
	History            []types.HistoryEntry
	Knowledge          types.KnowledgeState
	// Plan holds the streamed plan text; partial when the handoff failed.
	Plan string
}

type nopMetrics struct{}

func (nopMetrics) ObserveDecision(time.Duration, error)                {}
func (nopMetrics) ObserveAction(types.ActionType, bool, time.Duration) {}
func (nopMetrics) ObserveSession(types.Outcome, int)                   {}
