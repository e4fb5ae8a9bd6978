package jobs

import (
	"sync"
	"time"

	"spam-trainer/internal/domain"
)

// EventType classifies messages emitted by the workflow.
type EventType string

const (
	EventTypeStatus   EventType = "status"
	EventTypeFile     EventType = "file"
	EventTypeStage    EventType = "stage"
	EventTypeProgress EventType = "progress"
	EventTypeError    EventType = "error"
	EventTypeResult   EventType = "result"
	EventTypeNavigate EventType = "navigate"
)

// Event is a sequenced payload consumed by UI subscribers. Progress and
// StageIndex are set on progress and stage events only, where zero is meaningful.
type Event struct {
	Seq        int64                `json:"seq"`
	Timestamp  time.Time            `json:"timestamp"`
	SessionID  string               `json:"sessionId,omitempty"`
	Type       EventType            `json:"type"`
	State      domain.WorkflowState `json:"state,omitempty"`
	Message    string               `json:"message,omitempty"`
	HasFile    bool                 `json:"hasFile,omitempty"`
	StageIndex *int                 `json:"stageIndex,omitempty"`
	StageID    string               `json:"stageId,omitempty"`
	StageLabel string               `json:"stageLabel,omitempty"`
	Completed  []string             `json:"completed,omitempty"`
	Progress   *float64             `json:"progress,omitempty"`
	Route      string               `json:"route,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu          sync.RWMutex
	nextSeq     int64
	maxEvents   int
	events      []Event
	nextSub     int
	subscribers map[int]func(Event)
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents:   maxEvents,
		events:      make([]Event, 0, maxEvents),
		subscribers: make(map[int]func(Event)),
	}
}

// Publish appends one event, assigns sequence and timestamp, then notifies
// subscribers. Subscribers run on the publishing goroutine and must not publish.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	subs := make([]func(Event), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
	return event
}

// Subscribe registers fn for every future event and returns its cancel func.
func (b *EventBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// LastSeq returns the sequence of the newest event.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}
