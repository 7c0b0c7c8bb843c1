package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/0xsj/overwatch-linker/internal/domain/event"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/messaging"
)

const defaultSubjectPrefix = "overwatch"

// eventPublisher implements messaging.EventPublisher.
type eventPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(conn *nats.Conn, subjectPrefix string) messaging.EventPublisher {
	if subjectPrefix == "" {
		subjectPrefix = defaultSubjectPrefix
	}
	return &eventPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(newEnvelope(evt))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subjectForEvent(evt), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *eventPublisher) PublishAll(ctx context.Context, events []event.Event) error {
	for _, evt := range events {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// subjectForEvent yields e.g. "overwatch.presence.client.client.registered".
func (p *eventPublisher) subjectForEvent(evt event.Event) string {
	topic := messaging.TopicForEvent(evt)
	return fmt.Sprintf("%s.%s.%s", p.subjectPrefix, topic, evt.EventType())
}

// eventEnvelope wraps an event with metadata for transport.
type eventEnvelope struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	OccurredAt    int64       `json:"occurred_at"`
	Payload       interface{} `json:"payload"`
}

// clientPayload is the public body of client events. The linked identity is
// never published.
type clientPayload struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Authority string `json:"authority"`
}

func newEnvelope(evt event.Event) eventEnvelope {
	return eventEnvelope{
		EventID:       evt.EventID().String(),
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID().String(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt().Time().Unix(),
		Payload:       payloadFor(evt),
	}
}

func payloadFor(evt event.Event) interface{} {
	switch e := evt.(type) {
	case event.ClientRegistered:
		return clientPayload{ClientID: e.ClientID.String(), Name: e.Name, Authority: e.Authority}
	case event.ClientLinked:
		return clientPayload{ClientID: e.ClientID.String(), Name: e.Name, Authority: e.Authority}
	case event.ClientLinkRejected:
		return clientPayload{ClientID: e.ClientID.String(), Name: e.Name, Authority: e.Authority}
	default:
		return evt
	}
}
