package events

import (
	"time"

	"github.com/google/uuid"
)

type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends scenario events to per-scenario streams
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

type BaseEvent struct {
	EventID      string      `json:"id"`
	EventType    string      `json:"type"`
	Stream       string      `json:"stream"`
	EventData    interface{} `json:"data"`
	EventTime    time.Time   `json:"time"`
	EventVersion int         `json:"version"`
}

func (e BaseEvent) ID() string {
	return e.EventID
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent creates an event with a fresh id; the store assigns the version
func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		Stream:       streamID,
		EventData:    data,
		EventTime:    time.Now().UTC(),
		EventVersion: 1,
	}
}

// HandlerFunc adapts a function to EventHandler for the given event types
type HandlerFunc struct {
	Types []string
	Fn    func(Event) error
}

func (h *HandlerFunc) Handle(event Event) error {
	return h.Fn(event)
}

func (h *HandlerFunc) CanHandle(eventType string) bool {
	for _, t := range h.Types {
		if t == eventType {
			return true
		}
	}
	return false
}
