package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDecision = `{
  "understandingLevel": 0.42,
  "confidenceScore": {"architecture": 0.5, "data_flow": 0.3, "integration_points": 0.2, "implementation_details": 0.1},
  "thinking": "Need to see the entry point.",
  "currentKnowledge": {"confirmed": ["Go module"], "assumptions": ["cobra CLI"], "unknowns": ["storage layer"]},
  "action": {"type": "read_file", "parameters": {"path": "cmd/main.go"}},
  "continueExploration": true,
  "nextPriorities": ["storage"]
}`

func TestDecisionUnmarshal(t *testing.T) {
	var d Decision
	require.NoError(t, json.Unmarshal([]byte(sampleDecision), &d))

	assert.InDelta(t, 0.42, d.UnderstandingLevel, 1e-9)
	assert.InDelta(t, 0.3, d.ConfidenceScore.DataFlow, 1e-9)
	assert.Equal(t, ReadFile{Path: "cmd/main.go"}, d.Action)
	assert.True(t, d.ContinueExploration)
	assert.Equal(t, []string{"storage layer"}, d.CurrentKnowledge.Unknowns)
	assert.Equal(t, []string{"storage"}, d.NextPriorities)
}

func TestDecisionUnmarshalUnknownAction(t *testing.T) {
	var d Decision
	err := json.Unmarshal([]byte(`{"understandingLevel":0.1,"action":{"type":"rm_rf"}}`), &d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestDecisionWithoutAction(t *testing.T) {
	var d Decision
	require.NoError(t, json.Unmarshal([]byte(`{"understandingLevel":0.9,"continueExploration":false,"action":null}`), &d))
	assert.Nil(t, d.Action)
}

func TestDecisionRoundTrip(t *testing.T) {
	in := Decision{
		Iteration:           3,
		UnderstandingLevel:  0.8,
		Action:              ListDirectory{Path: "internal", Recursive: true},
		ContinueExploration: true,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"list_directory"`)

	var out Decision
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Action, out.Action)
	assert.Equal(t, 3, out.Iteration)
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("add caching", 0)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Active)
	assert.Equal(t, DefaultMaxIterations, s.Ceiling())

	s.CurrentIteration = 7
	s.LastObservations = []ActionResult{{ActionType: ActionReadFile}}
	now := time.Now()
	s.Reset(now)
	assert.True(t, s.Active)
	assert.Zero(t, s.CurrentIteration)
	assert.Empty(t, s.LastObservations)
	assert.Equal(t, now, s.StartedAt)

	s.Finish(OutcomeHandedOff, now.Add(time.Second))
	assert.False(t, s.Active)
	assert.Equal(t, OutcomeHandedOff, s.Outcome)
	require.NotNil(t, s.EndedAt)
	assert.True(t, s.Outcome.IsValid())

	s.MaxIterations = 5
	assert.Equal(t, 5, s.Ceiling())
}

func TestSummarizeDropsObservations(t *testing.T) {
	history := []HistoryEntry{{
		Iteration:     1,
		ActionSummary: ActionSummary{Type: ActionReadFile, Target: "a.go", Success: true},
		KeyFindings:   []string{"entry point"},
		Observation:   &ActionResult{ActionType: ActionReadFile, Success: true},
	}, {
		Iteration:     2,
		ActionSummary: ActionSummary{Type: ActionReadFile, Target: "b.go"},
	}}
	sum := Summarize(history)
	require.Len(t, sum, 2)
	assert.Equal(t, 1, sum[0].Iteration)
	assert.True(t, sum[0].Executed)
	assert.False(t, sum[1].Executed)
	assert.Equal(t, "a.go", sum[0].ActionSummary.Target)
	data, err := json.Marshal(sum[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "observation")
}
