package events

import (
	"time"

	"github.com/google/uuid"
)

// NewSimpleEvent creates an event with no structured data.
func NewSimpleEvent(eventType EventType, sessionID string, iteration int, severity EventSeverity, message string) *ExplorationEvent {
	return &ExplorationEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Iteration: iteration,
		Severity:  severity,
		Message:   message,
		Data:      map[string]interface{}{},
	}
}

// NewDecisionReceivedEvent creates a decision event with type-safe data.
func NewDecisionReceivedEvent(sessionID string, iteration int, message string, data DecisionReceivedData) (*ExplorationEvent, error) {
	event := NewSimpleEvent(EventTypeDecisionReceived, sessionID, iteration, SeverityInfo, message)
	if err := event.SetData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewActionCompletedEvent creates an action completion event. Failed actions
// are reported as warnings; they never stop the session.
func NewActionCompletedEvent(sessionID string, iteration int, message string, data ActionCompletedData) (*ExplorationEvent, error) {
	severity := SeverityInfo
	if !data.Success {
		severity = SeverityWarning
	}
	event := NewSimpleEvent(EventTypeActionCompleted, sessionID, iteration, severity, message)
	if err := event.SetData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewKnowledgeUpdatedEvent creates a knowledge merge event.
func NewKnowledgeUpdatedEvent(sessionID string, iteration int, message string, data KnowledgeUpdatedData) (*ExplorationEvent, error) {
	event := NewSimpleEvent(EventTypeKnowledgeUpdated, sessionID, iteration, SeverityInfo, message)
	if err := event.SetData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSessionTerminatedEvent creates the final event of a session.
func NewSessionTerminatedEvent(sessionID string, iteration int, severity EventSeverity, message string, data SessionTerminatedData) (*ExplorationEvent, error) {
	event := NewSimpleEvent(EventTypeSessionTerminated, sessionID, iteration, severity, message)
	if err := event.SetData(data); err != nil {
		return nil, err
	}
	return event, nil
}
