package mocks

import (
	"context"
	"sync"

	"github.com/0xsj/overwatch-linker/internal/domain/event"
)

// EventPublisher records published events by type.
type EventPublisher struct {
	mu     sync.RWMutex
	count  int
	byType map[string][]event.Event

	// Errors.Publish is returned by every publish once set; nothing is recorded.
	Errors struct {
		Publish error
	}
}

// NewEventPublisher creates a new mock EventPublisher.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		byType: make(map[string][]event.Event),
	}
}

func (m *EventPublisher) Publish(ctx context.Context, evt event.Event) error {
	return m.PublishAll(ctx, []event.Event{evt})
}

func (m *EventPublisher) PublishAll(ctx context.Context, events []event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Errors.Publish != nil {
		return m.Errors.Publish
	}
	for _, evt := range events {
		m.count++
		m.byType[evt.EventType()] = append(m.byType[evt.EventType()], evt)
	}
	return nil
}

// EventCount returns the total number of recorded events.
func (m *EventPublisher) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *EventPublisher) ClientRegisteredEvents() []event.ClientRegistered {
	return eventsOf[event.ClientRegistered](m, event.EventTypeClientRegistered)
}

func (m *EventPublisher) ClientLinkedEvents() []event.ClientLinked {
	return eventsOf[event.ClientLinked](m, event.EventTypeClientLinked)
}

func (m *EventPublisher) ClientLinkRejectedEvents() []event.ClientLinkRejected {
	return eventsOf[event.ClientLinkRejected](m, event.EventTypeClientLinkRejected)
}

func eventsOf[T event.Event](m *EventPublisher, eventType string) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.byType[eventType]
	result := make([]T, 0, len(events))
	for _, evt := range events {
		if typed, ok := evt.(T); ok {
			result = append(result, typed)
		}
	}
	return result
}
