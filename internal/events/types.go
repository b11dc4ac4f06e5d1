package events

import (
	"time"
)

// EventType represents the type of event that occurred during an exploration.
type EventType string

const (
	// EventTypeSessionStarted indicates an exploration session began
	EventTypeSessionStarted EventType = "session_started"
	// EventTypeIterationStarted indicates a new iteration is about to ask the oracle
	EventTypeIterationStarted EventType = "iteration_started"
	// EventTypeDecisionReceived indicates the oracle returned a valid decision
	EventTypeDecisionReceived EventType = "decision_received"
	// EventTypeActionStarted indicates an action was dispatched to the executor
	EventTypeActionStarted EventType = "action_started"
	// EventTypeActionCompleted indicates an action finished, successfully or not
	EventTypeActionCompleted EventType = "action_completed"
	// EventTypeKnowledgeUpdated indicates cumulative knowledge was merged
	EventTypeKnowledgeUpdated EventType = "knowledge_updated"
	// EventTypeSessionTerminated indicates the session reached a terminal outcome
	EventTypeSessionTerminated EventType = "session_terminated"
	// EventTypePlanChunk indicates a chunk of plan text arrived from the handoff
	EventTypePlanChunk EventType = "plan_chunk"
)

// IsValid checks if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeSessionStarted, EventTypeIterationStarted, EventTypeDecisionReceived,
		EventTypeActionStarted, EventTypeActionCompleted, EventTypeKnowledgeUpdated,
		EventTypeSessionTerminated, EventTypePlanChunk:
		return true
	}
	return false
}

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// ExplorationEvent is one observable step of an exploration session.
type ExplorationEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// SessionID is the exploration session that produced the event
	SessionID string `json:"session_id"`
	// Iteration is the loop iteration, 0 for session-level events
	Iteration int `json:"iteration"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// DecisionReceivedData contains structured data for decision events.
type DecisionReceivedData struct {
	UnderstandingLevel  float64 `json:"understanding_level"`
	ContinueExploration bool    `json:"continue_exploration"`
	ActionType          string  `json:"action_type,omitempty"`
	Target              string  `json:"target,omitempty"`
	Thinking            string  `json:"thinking,omitempty"`
}

// ActionCompletedData contains structured data for action completion events.
type ActionCompletedData struct {
	ActionType string `json:"action_type"`
	Target     string `json:"target"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// KnowledgeUpdatedData contains the sizes of the merged knowledge sets.
type KnowledgeUpdatedData struct {
	Confirmed           int `json:"confirmed"`
	Assumptions         int `json:"assumptions"`
	Unknowns            int `json:"unknowns"`
	ExploredFiles       int `json:"explored_files"`
	ExploredDirectories int `json:"explored_directories"`
}

// SessionTerminatedData contains structured data for session termination.
type SessionTerminatedData struct {
	Outcome            string  `json:"outcome"`
	Iterations         int     `json:"iterations"`
	UnderstandingLevel float64 `json:"understanding_level"`
	Reason             string  `json:"reason,omitempty"`
	CeilingReached     bool    `json:"ceiling_reached,omitempty"`
}
