package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/handoff"
	"github.com/steveyegge/scout/internal/types"
)

const decisionJSON = `{
  "understandingLevel": 0.45,
  "confidenceScore": {"architecture": 0.6, "data_flow": 0.4, "integration_points": 0.3, "implementation_details": 0.2},
  "thinking": "Entry point is cmd/api/main.go. Routes are wired in internal/server.",
  "currentKnowledge": {"confirmed": ["uses chi router"], "assumptions": [], "unknowns": ["auth middleware"]},
  "action": {"type": "read_file", "parameters": {"path": "internal/server/routes.go"}},
  "continueExploration": true,
  "nextPriorities": ["find auth"]
}`

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bare", decisionJSON},
		{"fenced", "```json\n" + decisionJSON + "\n```"},
		{"with prose", "Here is my decision:\n" + decisionJSON + "\nLet me know."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDecision(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, 0.45, d.UnderstandingLevel, 1e-9)
			assert.InDelta(t, 0.4, d.ConfidenceScore.DataFlow, 1e-9)
			assert.Equal(t, types.ReadFile{Path: "internal/server/routes.go"}, d.Action)
			assert.True(t, d.ContinueExploration)
			assert.Equal(t, []string{"auth middleware"}, d.CurrentKnowledge.Unknowns)
		})
	}
}

func TestParseDecisionRejectsUnknownAction(t *testing.T) {
	text := strings.Replace(decisionJSON, `"read_file"`, `"write_file"`, 1)
	_, err := parseDecision(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownAction)
}

func TestParseDecisionGarbage(t *testing.T) {
	_, err := parseDecision("I am not sure what to do next.")
	assert.Error(t, err)
}

// messagesServer answers every Messages API call with the given text.
func messagesServer(t *testing.T, status int, text string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprintf(w, `{"type":"error","error":{"type":"invalid_request_error","message":%q}}`, text)
			return
		}
		body, _ := json.Marshal(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "test-model",
			"content":       []map[string]any{{"type": "text", "text": text}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Retry: RetryConfig{
			MaxRetries:     1,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			Timeout:        5 * time.Second,
		},
	})
	require.NoError(t, err)
	return c
}

func TestOracleDecide(t *testing.T) {
	var calls atomic.Int32
	srv := messagesServer(t, http.StatusOK, "```json\n"+decisionJSON+"\n```", &calls)
	oracle := NewOracle(testClient(t, srv.URL), "Go module example.com/api")

	d, err := oracle.Decide(context.Background(), explore.DecisionRequest{
		ImplementationGoal:  "add rate limiting",
		Iteration:           1,
		MaxIterations:       20,
		CumulativeKnowledge: types.NewKnowledgeState(),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, types.ActionReadFile, d.Action.Type())
}

func TestOracleDecideInvalidRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := messagesServer(t, http.StatusBadRequest, "max_tokens too large", &calls)
	oracle := NewOracle(testClient(t, srv.URL), "")

	_, err := oracle.Decide(context.Background(), explore.DecisionRequest{ImplementationGoal: "x", Iteration: 1, MaxIterations: 5})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOracleDecideUnparseable(t *testing.T) {
	srv := messagesServer(t, http.StatusOK, "no json here", nil)
	oracle := NewOracle(testClient(t, srv.URL), "")

	_, err := oracle.Decide(context.Background(), explore.DecisionRequest{ImplementationGoal: "x", Iteration: 1, MaxIterations: 5})
	assert.ErrorContains(t, err, "failed to parse decision")
}

func TestPlanWriterStreams(t *testing.T) {
	requests := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- string(body)
		writePlanStream(w, "## Summary\n", "Add middleware.")
	}))
	defer srv.Close()

	writer := NewPlanWriter(testClient(t, srv.URL), "")
	stream, err := writer.Handoff(context.Background(), handoff.PlanRequest{
		ImplementationGoal:  "add rate limiting",
		CumulativeKnowledge: types.KnowledgeState{Confirmed: []string{"uses chi router"}},
	})
	require.NoError(t, err)

	plan, err := handoff.Collect(context.Background(), stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nAdd middleware.", plan)
	got := <-requests
	assert.Contains(t, got, "add rate limiting")
	assert.Contains(t, got, "uses chi router")
}

// writePlanStream answers a streaming Messages call with the given text deltas.
func writePlanStream(w http.ResponseWriter, deltas ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	send := func(event, data string) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}
	send("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"test-model","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":1}}}`)
	send("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
	for _, d := range deltas {
		text, _ := json.Marshal(d)
		send("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%s}}`, text))
	}
	send("content_block_stop", `{"type":"content_block_stop","index":0}`)
	send("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":8}}`)
	send("message_stop", `{"type":"message_stop"}`)
}

func TestPlanWriterHoldsConcurrencySlot(t *testing.T) {
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-unblock
		writePlanStream(w, "plan")
	}))
	defer srv.Close()
	unblockOnce := sync.OnceFunc(func() { close(unblock) })
	defer unblockOnce()

	client, err := NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Retry: RetryConfig{
			MaxRetries:         1,
			InitialBackoff:     time.Millisecond,
			MaxBackoff:         time.Millisecond,
			Timeout:            5 * time.Second,
			MaxConcurrentCalls: 1,
		},
	})
	require.NoError(t, err)
	writer := NewPlanWriter(client, "")

	stream, err := writer.Handoff(context.Background(), handoff.PlanRequest{ImplementationGoal: "first"})
	require.NoError(t, err)

	// The first stream is still open, so a second plan cannot start.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = writer.Handoff(ctx, handoff.PlanRequest{ImplementationGoal: "second"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "concurrency slot")

	unblockOnce()
	plan, err := handoff.Collect(context.Background(), stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "plan", plan)

	assert.Eventually(t, func() bool {
		if !client.concurrencySem.TryAcquire(1) {
			return false
		}
		client.concurrencySem.Release(1)
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestPlanWriterCircuitOpen(t *testing.T) {
	client := newClient(nil, &Config{Model: "m", Retry: RetryConfig{
		MaxRetries: 1, Timeout: time.Second,
		CircuitBreakerEnabled: true, FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Hour,
	}})
	client.circuitBreaker.RecordFailure()

	_, err := NewPlanWriter(client, "").Handoff(context.Background(), handoff.PlanRequest{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
