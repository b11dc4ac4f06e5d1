// Package handoff defines the streaming protocol between an exploration
// session and the plan generator that consumes it.
//
// A plan stream is an ordered sequence of chunk events followed by exactly one
// terminal event, either complete or error. Producers close the channel after
// the terminal event.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/scout/internal/types"
)

// EventKind discriminates stream events.
type EventKind string

const (
	EventChunk    EventKind = "chunk"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Event is one element of a plan stream.
type Event struct {
	Kind    EventKind `json:"type"`
	Text    string    `json:"text,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream
func (e Event) Terminal() bool {
	return e.Kind == EventComplete || e.Kind == EventError
}

// Chunk creates a text chunk event.
func Chunk(text string) Event { return Event{Kind: EventChunk, Text: text} }

// Complete creates the successful terminal event.
func Complete() Event { return Event{Kind: EventComplete} }

// Failure creates the error terminal event.
func Failure(message string) Event { return Event{Kind: EventError, Message: message} }

// PlanRequest is what a plan generator receives at handoff.
type PlanRequest struct {
	ImplementationGoal  string                 `json:"implementationGoal"`
	HistorySummary      []types.HistorySummary `json:"historySummary"`
	CumulativeKnowledge types.KnowledgeState   `json:"cumulativeKnowledge"`
}

// Planner produces a plan stream for a finished exploration. An error return
// means the stream could not be started at all.
type Planner interface {
	Handoff(ctx context.Context, req PlanRequest) (<-chan Event, error)
}

// ErrStreamFailed is returned by Collect when the stream ends with an error
// event or without any terminal event.
var ErrStreamFailed = errors.New("plan stream failed")

// Collect drains a plan stream and returns the concatenated chunk text. Each
// chunk is passed to onChunk when it is non-nil. Text received before a
// failure is returned with the error.
func Collect(ctx context.Context, stream <-chan Event, onChunk func(string)) (string, error) {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				return sb.String(), fmt.Errorf("%w: stream closed without a terminal event", ErrStreamFailed)
			}
			switch ev.Kind {
			case EventChunk:
				sb.WriteString(ev.Text)
				if onChunk != nil {
					onChunk(ev.Text)
				}
			case EventComplete:
				return sb.String(), nil
			case EventError:
				return sb.String(), fmt.Errorf("%w: %s", ErrStreamFailed, ev.Message)
			}
		}
	}
}

// Emitter sends events to a stream and enforces the single terminal event
// rule. Not safe for concurrent use.
type Emitter struct {
	ch     chan Event
	closed bool
}

// NewEmitter creates an emitter and the receive side of its stream.
func NewEmitter(buffer int) (*Emitter, <-chan Event) {
	ch := make(chan Event, buffer)
	return &Emitter{ch: ch}, ch
}

// Chunk sends a text chunk. It returns false once the stream has terminated
// or ctx is done.
func (e *Emitter) Chunk(ctx context.Context, text string) bool {
	if e.closed {
		return false
	}
	if text == "" {
		return true
	}
	select {
	case e.ch <- Chunk(text):
		return true
	case <-ctx.Done():
		return false
	}
}

// Finish sends the terminal event and closes the stream. A nil err completes
// the stream; later calls are no-ops. If ctx is done before the consumer takes
// the event, it is dropped and only the close is observed.
func (e *Emitter) Finish(ctx context.Context, err error) {
	if e.closed {
		return
	}
	e.closed = true
	ev := Complete()
	if err != nil {
		ev = Failure(err.Error())
	}
	select {
	case e.ch <- ev:
	case <-ctx.Done():
	}
	close(e.ch)
}
