package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/types"
)

// Oracle asks the model for the next exploration decision.
type Oracle struct {
	client    *Client
	profile   string
	maxTokens int
	logger    *zap.Logger
}

var _ explore.DecisionOracle = (*Oracle)(nil)

// NewOracle creates an oracle. profile is a rendered workspace profile
// included in every prompt; it may be empty.
func NewOracle(client *Client, profile string) *Oracle {
	return &Oracle{
		client:    client,
		profile:   profile,
		maxTokens: 4096,
		logger:    client.logger.Named("oracle"),
	}
}

// Decide requests one decision. Transport failures are retried inside the
// client; a response that cannot be decoded into a decision is an error.
func (o *Oracle) Decide(ctx context.Context, req explore.DecisionRequest) (*types.Decision, error) {
	prompt := buildDecisionPrompt(req, o.profile)
	text, err := o.client.CallAI(ctx, decisionSystemPrompt, prompt, "decision", "", o.maxTokens)
	if err != nil {
		return nil, err
	}
	return parseDecision(text)
}

// parseDecision extracts a decision from model text. Decoding goes through
// json.RawMessage first so the tolerant parser can cope with fences and prose
// while the strict action decoding still rejects unknown kinds.
func parseDecision(text string) (*types.Decision, error) {
	raw := Parse[json.RawMessage](text, "decision")
	if !raw.Success {
		return nil, fmt.Errorf("failed to parse decision: %s", raw.Error)
	}
	var d types.Decision
	if err := json.Unmarshal(raw.Data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode decision: %w", err)
	}
	return &d, nil
}
