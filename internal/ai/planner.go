package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/steveyegge/scout/internal/handoff"
)

const planSystemPrompt = `You are a senior engineer writing an implementation plan for a change to a repository another engineer has just explored.
Ground every step in the confirmed findings. Call out assumptions and unknowns explicitly instead of guessing.`

// PlanWriter streams an implementation plan from the model.
type PlanWriter struct {
	client    *Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

var _ handoff.Planner = (*PlanWriter)(nil)

// NewPlanWriter creates a plan writer. An empty model uses the client default.
func NewPlanWriter(client *Client, model string) *PlanWriter {
	if model == "" {
		model = client.model
	}
	return &PlanWriter{
		client:    client,
		model:     model,
		maxTokens: 8192,
		logger:    client.logger.Named("plan"),
	}
}

// Handoff starts streaming the plan. The stream is not retried once it has
// started; a mid-stream failure arrives as an error event.
func (w *PlanWriter) Handoff(ctx context.Context, req handoff.PlanRequest) (<-chan handoff.Event, error) {
	if err := w.client.HealthCheck(ctx); err != nil {
		return nil, err
	}
	// The concurrency slot is held until the stream goroutine exits.
	release := func() {}
	if sem := w.client.concurrencySem; sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("failed to acquire concurrency slot for plan request: %w", err)
		}
		release = func() { sem.Release(1) }
	}
	if w.client.limiter != nil {
		if err := w.client.limiter.Wait(ctx); err != nil {
			release()
			return nil, fmt.Errorf("plan request: rate limiter: %w", err)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(w.model),
		MaxTokens: w.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: planSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPlanPrompt(req))),
		},
	}

	emitter, events := handoff.NewEmitter(32)
	go func() {
		defer release()
		stream := w.client.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
					if !emitter.Chunk(ctx, delta.Text) {
						emitter.Finish(ctx, ctx.Err())
						return
					}
				}
			case anthropic.MessageDeltaEvent:
				if ev.Delta.StopReason == anthropic.StopReasonMaxTokens {
					w.logger.Warn("plan stopped at max tokens", zap.Int64("max_tokens", w.maxTokens))
				}
			}
		}
		if err := stream.Err(); err != nil {
			if w.client.circuitBreaker != nil && isRetriableError(err) {
				w.client.circuitBreaker.RecordFailure()
			}
			emitter.Finish(ctx, fmt.Errorf("plan stream failed: %w", err))
			return
		}
		if w.client.circuitBreaker != nil {
			w.client.circuitBreaker.RecordSuccess()
		}
		emitter.Finish(ctx, nil)
	}()
	return events, nil
}

func buildPlanPrompt(req handoff.PlanRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IMPLEMENTATION GOAL:\n%s\n\n", req.ImplementationGoal)

	k := req.CumulativeKnowledge
	sb.WriteString("KNOWLEDGE FROM EXPLORATION:\n")
	writeList(&sb, "Confirmed", k.Confirmed)
	writeList(&sb, "Assumptions", k.Assumptions)
	writeList(&sb, "Unknowns", k.Unknowns)
	writeList(&sb, "Files read", k.ExploredFiles)
	writeList(&sb, "Directories listed", k.ExploredDirectories)
	sb.WriteString("\nEXPLORATION STEPS:\n")
	for _, h := range req.HistorySummary {
		status := "ok"
		switch {
		case !h.Executed:
			status = "not executed"
		case !h.ActionSummary.Success:
			status = "failed"
		}
		fmt.Fprintf(&sb, "%d. %s %q (%s, understanding %.2f)\n",
			h.Iteration, h.ActionSummary.Type, h.ActionSummary.Target, status, h.UnderstandingLevel)
		for _, f := range h.KeyFindings {
			fmt.Fprintf(&sb, "   - %s\n", f)
		}
	}
	sb.WriteString(`
Write the plan in these sections: Summary, Files to change (with the reason for each), Step-by-step changes, Tests, Risks and open questions.`)
	return sb.String()
}
