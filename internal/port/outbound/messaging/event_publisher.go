package messaging

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/event"
)

// EventPublisher defines the interface for publishing domain events.
type EventPublisher interface {
	// Publish publishes a single event.
	Publish(ctx context.Context, evt event.Event) error

	// PublishAll publishes multiple events.
	PublishAll(ctx context.Context, events []event.Event) error
}

// Topic names for linker events.
const (
	TopicClientEvents = "presence.client"
	TopicAuthEvents   = "presence.auth"
)

// TopicForEvent returns the appropriate topic for an event type.
func TopicForEvent(evt event.Event) string {
	switch evt.AggregateType() {
	case event.AggregateTypeClient:
		// Rejections go to the auth topic for auditing
		if evt.EventType() == event.EventTypeClientLinkRejected {
			return TopicAuthEvents
		}
		return TopicClientEvents
	default:
		return TopicClientEvents
	}
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, event.Event) error { return nil }
func (NopPublisher) PublishAll(context.Context, []event.Event) error { return nil }
