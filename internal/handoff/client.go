package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// readChunkSize is the network read size. Lines routinely straddle reads.
const readChunkSize = 4096

// HTTPPlanner streams a plan from an external plan service. The request is
// POSTed as JSON; the response body is NDJSON or server-sent events carrying
// Event objects.
type HTTPPlanner struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

// NewHTTPPlanner creates a planner for the given endpoint.
func NewHTTPPlanner(url string, logger *zap.Logger) *HTTPPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPlanner{
		URL: url,
		// No overall timeout: plan streams are long-lived and bounded by ctx
		Client: &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: 60 * time.Second}},
		Logger: logger,
	}
}

// Handoff starts the stream. Connection and status failures are returned
// directly; failures after the stream starts arrive as an error event.
func (p *HTTPPlanner) Handoff(ctx context.Context, req PlanRequest) (<-chan Event, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create plan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/x-ndjson")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach plan service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("plan service returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	emitter, stream := NewEmitter(16)
	go func() {
		defer resp.Body.Close()
		err := p.pump(ctx, resp.Body, emitter)
		if err != nil {
			p.Logger.Warn("plan stream failed", zap.Error(err))
		}
	}()
	return stream, nil
}

// pump reads the body in fixed-size chunks and forwards parsed events until a
// terminal event, EOF or a read error. It always finishes the emitter.
func (p *HTTPPlanner) pump(ctx context.Context, body io.Reader, emitter *Emitter) (err error) {
	defer func() { emitter.Finish(ctx, err) }()

	var lines LineBuffer
	buf := make([]byte, readChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range lines.Write(buf[:n]) {
				done, err := p.forward(ctx, line, emitter)
				if err != nil || done {
					return err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			if line, ok := lines.Flush(); ok {
				done, err := p.forward(ctx, line, emitter)
				if err != nil || done {
					return err
				}
			}
			return errors.New("plan stream ended without a terminal event")
		}
		if readErr != nil {
			return fmt.Errorf("failed to read plan stream: %w", readErr)
		}
	}
}

// forward parses one line and emits it. done is true once a terminal event
// has been seen.
func (p *HTTPPlanner) forward(ctx context.Context, line string, emitter *Emitter) (done bool, err error) {
	ev, ok, err := ParseLine(line)
	if err != nil {
		return true, err
	}
	if !ok {
		return false, nil
	}
	switch ev.Kind {
	case EventChunk:
		if !emitter.Chunk(ctx, ev.Text) {
			return true, ctx.Err()
		}
		return false, nil
	case EventError:
		return true, errors.New(ev.Message)
	default:
		return true, nil
	}
}
