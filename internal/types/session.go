package types

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxIterations is the iteration ceiling used when none is configured.
const DefaultMaxIterations = 20

// Outcome is how an exploration session terminated.
type Outcome string

const (
	OutcomeHandedOff              Outcome = "handed_off"
	OutcomeInsufficientConfidence Outcome = "insufficient_confidence"
	OutcomeAborted                Outcome = "aborted"
)

// IsValid checks if the outcome is a known terminal outcome
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeHandedOff, OutcomeInsufficientConfidence, OutcomeAborted:
		return true
	}
	return false
}

// ExplorationSession is the mutable state of one exploration run. It is owned
// by the caller and passed to the orchestrator; nothing holds it globally.
type ExplorationSession struct {
	ID                 string         `json:"id"`
	Active             bool           `json:"active"`
	CurrentIteration   int            `json:"currentIteration"`
	ImplementationGoal string         `json:"implementationGoal"`
	MaxIterations      int            `json:"maxIterations"`
	LastObservations   []ActionResult `json:"lastObservations"`
	StartedAt          time.Time      `json:"startedAt"`
	EndedAt            *time.Time     `json:"endedAt,omitempty"`
	Outcome            Outcome        `json:"outcome,omitempty"`
	Workspace          string         `json:"workspace,omitempty"`
}

// NewSession creates an inactive session for goal with a fresh ID.
func NewSession(goal string, maxIterations int) *ExplorationSession {
	return &ExplorationSession{
		ID:                 uuid.New().String(),
		ImplementationGoal: goal,
		MaxIterations:      maxIterations,
	}
}

// Ceiling returns the effective iteration ceiling.
func (s *ExplorationSession) Ceiling() int {
	if s.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return s.MaxIterations
}

// Reset prepares the session for a new run.
func (s *ExplorationSession) Reset(now time.Time) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.Active = true
	s.CurrentIteration = 0
	s.LastObservations = nil
	s.StartedAt = now
	s.EndedAt = nil
	s.Outcome = ""
}

// Finish deactivates the session with the given outcome.
func (s *ExplorationSession) Finish(outcome Outcome, now time.Time) {
	s.Active = false
	s.Outcome = outcome
	s.EndedAt = &now
}
