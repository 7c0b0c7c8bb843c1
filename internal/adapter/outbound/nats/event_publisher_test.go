package nats

import (
	"encoding/json"
	"testing"

	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/event"
)

func TestSubjectForEvent(t *testing.T) {
	p := &eventPublisher{subjectPrefix: "overwatch"}
	id := types.NewID()

	tests := []struct {
		name string
		evt  event.Event
		want string
	}{
		{"registered", event.NewClientRegistered(id, "alice", "google"), "overwatch.presence.client.client.registered"},
		{"linked", event.NewClientLinked(id, "alice", "google"), "overwatch.presence.client.client.linked"},
		{"rejected", event.NewClientLinkRejected(id, "alice", "github"), "overwatch.presence.auth.client.link_rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.subjectForEvent(tt.evt); got != tt.want {
				t.Errorf("subjectForEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEventPublisher_DefaultPrefix(t *testing.T) {
	p := NewEventPublisher(nil, "").(*eventPublisher)
	if p.subjectPrefix != defaultSubjectPrefix {
		t.Errorf("subjectPrefix = %q, want %q", p.subjectPrefix, defaultSubjectPrefix)
	}
}

func TestNewEnvelope(t *testing.T) {
	id := types.NewID()
	evt := event.NewClientLinked(id, "alice", "keycloak")

	data, err := json.Marshal(newEnvelope(evt))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		EventType   string            `json:"event_type"`
		AggregateID string            `json:"aggregate_id"`
		Payload     map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.EventType != event.EventTypeClientLinked {
		t.Errorf("event_type = %q", decoded.EventType)
	}
	if decoded.AggregateID != id.String() {
		t.Errorf("aggregate_id = %q, want %q", decoded.AggregateID, id.String())
	}
	if decoded.Payload["name"] != "alice" || decoded.Payload["authority"] != "keycloak" {
		t.Errorf("unexpected payload: %v", decoded.Payload)
	}
	if decoded.Payload["client_id"] != id.String() {
		t.Errorf("client_id = %q", decoded.Payload["client_id"])
	}
}
