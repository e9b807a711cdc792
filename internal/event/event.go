package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/dashflow/internal/event/topic"
)

// Payload is implemented by every event payload type.
type Payload interface {
	// EventType returns the topic the payload is published under.
	EventType() topic.Topic
}

// Event is a fact produced by a dashboard session.
// Events are immutable once emitted.
type Event struct {
	// Type is the hierarchical event type (e.g., "dash.evt.saved").
	Type topic.Topic `json:"type"`

	// Payload contains the event-specific data.
	Payload Payload `json:"payload"`

	// Metadata contains standard event information.
	Metadata Metadata `json:"metadata"`
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string `json:"id"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Source identifies the component that emitted the event.
	Source string `json:"source,omitempty"`

	// CorrelationID is the caller-supplied id of the command that produced the event.
	CorrelationID string `json:"correlationId,omitempty"`

	// CausationID is the id of the command that produced the event.
	CausationID string `json:"causationId,omitempty"`

	// Terminal marks the single event that ends a command.
	Terminal bool `json:"terminal,omitempty"`
}

// New creates an event for payload with the given metadata. Missing ID and
// Timestamp are filled in.
func New(payload Payload, meta Metadata) Event {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	return Event{
		Type:     payload.EventType(),
		Payload:  payload,
		Metadata: meta,
	}
}

// WithCorrelation returns a copy of the event with a correlation ID set.
func (e Event) WithCorrelation(correlationID string) Event {
	e.Metadata.CorrelationID = correlationID
	return e
}

// WithCausation returns a copy of the event with a causation ID set.
func (e Event) WithCausation(causationID string) Event {
	e.Metadata.CausationID = causationID
	return e
}

// AsTerminal returns a copy of the event marked as terminal.
func (e Event) AsTerminal() Event {
	e.Metadata.Terminal = true
	return e
}

// PayloadAs returns the event payload as T.
func PayloadAs[T Payload](e Event) (T, bool) {
	p, ok := e.Payload.(T)
	return p, ok
}

// Predicate selects events.
type Predicate func(Event) bool

// IsTerminal matches the event ending a command.
func IsTerminal(e Event) bool {
	return e.Metadata.Terminal
}

// OfType matches events whose type matches any of the patterns.
func OfType(patterns ...topic.Topic) Predicate {
	return func(e Event) bool {
		for _, p := range patterns {
			if e.Type.Matches(p) {
				return true
			}
		}
		return false
	}
}

// CausedBy matches events produced by the command with the given id.
func CausedBy(commandID string) Predicate {
	return func(e Event) bool {
		return e.Metadata.CausationID == commandID
	}
}

// All matches events satisfying every predicate.
func All(preds ...Predicate) Predicate {
	return func(e Event) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// Any matches events satisfying at least one predicate.
func Any(preds ...Predicate) Predicate {
	return func(e Event) bool {
		for _, p := range preds {
			if p(e) {
				return true
			}
		}
		return false
	}
}
