package events

import "sync"

// Sink receives events as a run proceeds. Emit must not block for long;
// the engine calls it inline.
type Sink interface {
	Emit(event *Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event *Event)

// Emit calls f(event).
func (f SinkFunc) Emit(event *Event) {
	f(event)
}

type discard struct{}

func (discard) Emit(*Event) {}

// Discard drops every event.
var Discard Sink = discard{}

// Recorder keeps every event it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the event.
func (r *Recorder) Emit(event *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of one type, in order.
func (r *Recorder) OfType(eventType EventType) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type multi []Sink

func (m multi) Emit(event *Event) {
	for _, s := range m {
		s.Emit(event)
	}
}

// Multi fans each event out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type levelFilter struct {
	min  EventSeverity
	next Sink
}

func (f levelFilter) Emit(event *Event) {
	if event.Severity.Rank() >= f.min.Rank() {
		f.next.Emit(event)
	}
}

// LevelFilter forwards events at or above min to next.
func LevelFilter(min EventSeverity, next Sink) Sink {
	return levelFilter{min: min, next: next}
}
