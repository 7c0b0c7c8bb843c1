package event

import (
	"github.com/0xsj/overwatch-pkg/types"
)

// ClientRegistered is emitted when a display name is claimed for the first time.
type ClientRegistered struct {
	BaseEvent
	ClientID  types.ID
	Name      string
	Authority string
}

// NewClientRegistered creates a new ClientRegistered event.
func NewClientRegistered(clientID types.ID, name string, authority string) ClientRegistered {
	return ClientRegistered{
		BaseEvent: NewBaseEvent(EventTypeClientRegistered, clientID, AggregateTypeClient),
		ClientID:  clientID,
		Name:      name,
		Authority: authority,
	}
}

// ClientLinked is emitted when a returning user logs in under their name.
type ClientLinked struct {
	BaseEvent
	ClientID  types.ID
	Name      string
	Authority string
}

// NewClientLinked creates a new ClientLinked event.
func NewClientLinked(clientID types.ID, name string, authority string) ClientLinked {
	return ClientLinked{
		BaseEvent: NewBaseEvent(EventTypeClientLinked, clientID, AggregateTypeClient),
		ClientID:  clientID,
		Name:      name,
		Authority: authority,
	}
}

// ClientLinkRejected is emitted when a name is claimed by a different identity.
// The identity itself is not carried.
type ClientLinkRejected struct {
	BaseEvent
	ClientID  types.ID
	Name      string
	Authority string
}

// NewClientLinkRejected creates a new ClientLinkRejected event.
func NewClientLinkRejected(clientID types.ID, name string, authority string) ClientLinkRejected {
	return ClientLinkRejected{
		BaseEvent: NewBaseEvent(EventTypeClientLinkRejected, clientID, AggregateTypeClient),
		ClientID:  clientID,
		Name:      name,
		Authority: authority,
	}
}
