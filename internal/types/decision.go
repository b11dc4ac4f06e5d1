package types

import (
	"encoding/json"
	"fmt"
)

// ConfidenceScore breaks understanding down by dimension. Every field is in
// [0,1].
type ConfidenceScore struct {
	Architecture          float64 `json:"architecture" validate:"gte=0,lte=1"`
	DataFlow              float64 `json:"data_flow" validate:"gte=0,lte=1"`
	IntegrationPoints     float64 `json:"integration_points" validate:"gte=0,lte=1"`
	ImplementationDetails float64 `json:"implementation_details" validate:"gte=0,lte=1"`
}

// Decision is the oracle's response for one iteration.
type Decision struct {
	Iteration           int               `json:"iteration"`
	UnderstandingLevel  float64           `json:"understandingLevel" validate:"gte=0,lte=1"`
	ConfidenceScore     ConfidenceScore   `json:"confidenceScore"`
	Thinking            string            `json:"thinking"`
	CurrentKnowledge    KnowledgeSnapshot `json:"currentKnowledge"`
	Action              Action            `json:"-" validate:"-"`
	ContinueExploration bool              `json:"continueExploration"`
	NextPriorities      []string          `json:"nextPriorities"`
}

// decisionAlias has Decision's fields without its methods.
type decisionAlias Decision

type wireDecision struct {
	decisionAlias
	Action json.RawMessage `json:"action"`
}

// MarshalJSON encodes the action in its wire form.
func (d Decision) MarshalJSON() ([]byte, error) {
	action, err := MarshalAction(d.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireDecision{decisionAlias: decisionAlias(d), Action: action})
}

// UnmarshalJSON decodes a decision, rejecting unknown action kinds.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var w wireDecision
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Decision(w.decisionAlias)
	if len(w.Action) == 0 || string(w.Action) == "null" {
		d.Action = nil
		return nil
	}
	action, err := UnmarshalAction(w.Action)
	if err != nil {
		return fmt.Errorf("invalid decision action: %w", err)
	}
	d.Action = action
	return nil
}
