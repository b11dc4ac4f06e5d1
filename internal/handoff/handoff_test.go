package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBufferCarriesPartialLines(t *testing.T) {
	var b LineBuffer
	assert.Empty(t, b.Write([]byte(`{"type":"chunk","te`)))
	assert.Equal(t, 19, b.Pending())

	lines := b.Write([]byte("xt\":\"hello\"}\n{\"type\":"))
	require.Equal(t, []string{`{"type":"chunk","text":"hello"}`}, lines)

	lines = b.Write([]byte("\"complete\"}\r\n"))
	require.Equal(t, []string{`{"type":"complete"}`}, lines)

	_, ok := b.Flush()
	assert.False(t, ok)
}

func TestLineBufferMultipleLinesPerChunk(t *testing.T) {
	var b LineBuffer
	lines := b.Write([]byte("a\nb\n\nc"))
	assert.Equal(t, []string{"a", "b", ""}, lines)
	line, ok := b.Flush()
	assert.True(t, ok)
	assert.Equal(t, "c", line)
}

func TestLineBufferByteAtATime(t *testing.T) {
	input := "data: {\"type\":\"chunk\",\"text\":\"x\"}\n\ndata: [DONE]\n"
	var b LineBuffer
	var got []string
	for i := 0; i < len(input); i++ {
		got = append(got, b.Write([]byte{input[i]})...)
	}
	assert.Equal(t, []string{`data: {"type":"chunk","text":"x"}`, "", "data: [DONE]"}, got)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Event
		ok      bool
		wantErr bool
	}{
		{`{"type":"chunk","text":"plan"}`, Chunk("plan"), true, false},
		{`data: {"type":"chunk","text":"sse"}`, Chunk("sse"), true, false},
		{`data:{"type":"error","message":"boom"}`, Failure("boom"), true, false},
		{`{"type":"complete"}`, Complete(), true, false},
		{"data: [DONE]", Complete(), true, false},
		{"", Event{}, false, false},
		{"   ", Event{}, false, false},
		{": keep-alive", Event{}, false, false},
		{"event: close", Event{}, false, false},
		{"data: ", Event{}, false, false},
		{`{"type":"bogus"}`, Event{}, false, true},
		{`{not json`, Event{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev, ok, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestEmitterSingleTerminal(t *testing.T) {
	ctx := context.Background()
	e, stream := NewEmitter(4)
	assert.True(t, e.Chunk(ctx, "a"))
	e.Finish(ctx, nil)
	e.Finish(ctx, errors.New("ignored"))
	assert.False(t, e.Chunk(ctx, "late"))

	var events []Event
	for ev := range stream {
		events = append(events, ev)
	}
	assert.Equal(t, []Event{Chunk("a"), Complete()}, events)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	e, stream := NewEmitter(4)
	go func() {
		e.Chunk(ctx, "Step 1. ")
		e.Chunk(ctx, "Step 2.")
		e.Finish(ctx, nil)
	}()

	var seen []string
	text, err := Collect(ctx, stream, func(s string) { seen = append(seen, s) })
	require.NoError(t, err)
	assert.Equal(t, "Step 1. Step 2.", text)
	assert.Len(t, seen, 2)
}

func TestCollectErrorKeepsPartialText(t *testing.T) {
	ctx := context.Background()
	e, stream := NewEmitter(4)
	e.Chunk(ctx, "partial")
	e.Finish(ctx, errors.New("model overloaded"))

	text, err := Collect(ctx, stream, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStreamFailed))
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, "partial", text)
}

func TestCollectClosedWithoutTerminal(t *testing.T) {
	ch := make(chan Event, 1)
	ch <- Chunk("x")
	close(ch)
	_, err := Collect(context.Background(), ch, nil)
	assert.True(t, errors.Is(err, ErrStreamFailed))
}

// splitWriter writes the body in awkward fragments and flushes each one so
// events straddle network reads.
func splitWriter(w http.ResponseWriter, body string, size int) {
	flusher := w.(http.Flusher)
	for len(body) > 0 {
		n := size
		if n > len(body) {
			n = len(body)
		}
		fmt.Fprint(w, body[:n])
		flusher.Flush()
		body = body[n:]
	}
}

func TestHTTPPlannerSSE(t *testing.T) {
	var gotGoal string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			gotGoal = req.ImplementationGoal
		}
		w.Header().Set("Content-Type", "text/event-stream")
		stream := ": hello\n\n" +
			"data: {\"type\":\"chunk\",\"text\":\"## Plan\\n\"}\n\n" +
			"event: message\n" +
			"data: {\"type\":\"chunk\",\"text\":\"1. Add middleware\"}\n\n" +
			"data: [DONE]\n\n"
		splitWriter(w, stream, 7)
	}))
	defer srv.Close()

	p := NewHTTPPlanner(srv.URL, nil)
	stream, err := p.Handoff(context.Background(), PlanRequest{ImplementationGoal: "add auth"})
	require.NoError(t, err)

	text, err := Collect(context.Background(), stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Plan\n1. Add middleware", text)
	assert.Equal(t, "add auth", gotGoal)
}

func TestHTTPPlannerNDJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		splitWriter(w, "{\"type\":\"chunk\",\"text\":\"a\"}\n{\"type\":\"error\",\"message\":\"quota\"}\n{\"type\":\"chunk\",\"text\":\"never\"}\n", 5)
	}))
	defer srv.Close()

	stream, err := NewHTTPPlanner(srv.URL, nil).Handoff(context.Background(), PlanRequest{})
	require.NoError(t, err)

	var events []Event
	for ev := range stream {
		events = append(events, ev)
	}
	assert.Equal(t, []Event{Chunk("a"), Failure("quota")}, events)
}

func TestHTTPPlannerTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"type\":\"chunk\",\"text\":\"a\"}\n{\"type\":\"chunk\",\"text\":\"b\"}")
	}))
	defer srv.Close()

	stream, err := NewHTTPPlanner(srv.URL, nil).Handoff(context.Background(), PlanRequest{})
	require.NoError(t, err)

	text, err := Collect(context.Background(), stream, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a terminal event")
	assert.Equal(t, "ab", text, "an unterminated final line is still parsed")
}

func TestHTTPPlannerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plan service down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPPlanner(srv.URL, nil).Handoff(context.Background(), PlanRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "plan service down")
}
