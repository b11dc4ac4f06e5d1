package events

import (
	"context"
	"errors"
	"sync"
)

// Sink receives exploration events. Publish errors are reported to the
// caller but never stop an exploration.
type Sink interface {
	Publish(ctx context.Context, event *ExplorationEvent) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, event *ExplorationEvent) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, event *ExplorationEvent) error {
	return f(ctx, event)
}

// Multi fans an event out to every sink, in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return multiSink(live)
}

type multiSink []Sink

func (m multiSink) Publish(ctx context.Context, event *ExplorationEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []*ExplorationEvent
}

// Publish records the event.
func (r *Recorder) Publish(_ context.Context, event *ExplorationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*ExplorationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ExplorationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
