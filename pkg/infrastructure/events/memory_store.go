package events

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
)

// InMemoryEventStore keeps per-scenario streams for the lifetime of one
// command and notifies subscribers before AppendEvent returns
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	log         *logrus.Entry
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		log:         logging.Component("events"),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	eventWithVersion := BaseEvent{
		EventID:      event.ID(),
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.mutex.Unlock()

	s.notify(handlers, eventWithVersion)
	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}
	return append([]Event(nil), events[fromVersion-1:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}
	return nil
}

func (s *InMemoryEventStore) notify(handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.log.WithFields(logrus.Fields{
				"event":  event.Type(),
				"stream": event.StreamID(),
			}).WithError(err).Warn("event handler failed")
		}
	}
}
