package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr string
	}{
		{"valid read", ReadFile{Path: "main.go"}, ""},
		{"empty path", ReadFile{Path: ""}, "read_file: path must not be empty"},
		{"blank path", ListDirectory{Path: "   "}, "list_directory: path must not be empty"},
		{"empty query", SearchContent{Query: "", Scope: "src"}, "search_content: query must not be empty"},
		{"scope optional", SearchContent{Query: "x"}, ""},
		{"empty command", ReadTerminal{}, "read_terminal: command must not be empty"},
		{"nil", nil, "action is missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAction(tt.action)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func validDecision() *Decision {
	return &Decision{
		UnderstandingLevel: 0.5,
		ConfidenceScore: ConfidenceScore{
			Architecture:          0.5,
			DataFlow:              0.4,
			IntegrationPoints:     0.3,
			ImplementationDetails: 0.2,
		},
		Action:              ReadFile{Path: "go.mod"},
		ContinueExploration: true,
	}
}

func TestValidateDecision(t *testing.T) {
	require.NoError(t, ValidateDecision(validDecision()))

	d := validDecision()
	d.UnderstandingLevel = 1.5
	err := ValidateDecision(d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "understandingLevel")

	d = validDecision()
	d.ConfidenceScore.DataFlow = -0.1
	err = ValidateDecision(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_flow")

	d = validDecision()
	d.ConfidenceScore.Architecture = math.NaN()
	require.Error(t, ValidateDecision(d))

	d = validDecision()
	d.UnderstandingLevel = 0
	d.ConfidenceScore = ConfidenceScore{1, 1, 1, 1}
	assert.NoError(t, ValidateDecision(d), "bounds are inclusive")
}

func TestValidateDecisionAction(t *testing.T) {
	d := validDecision()
	d.Action = nil
	err := ValidateDecision(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action is required")

	d.ContinueExploration = false
	assert.NoError(t, ValidateDecision(d))

	// Parameter problems are the executor's concern, not the oracle's.
	d = validDecision()
	d.Action = ReadFile{Path: ""}
	assert.NoError(t, ValidateDecision(d))
}
