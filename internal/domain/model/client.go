package model

import (
	"github.com/0xsj/overwatch-pkg/types"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
)

// ClientState describes where a named client is in its linking lifecycle.
type ClientState string

const (
	ClientStateUnregistered           ClientState = "unregistered"
	ClientStateRegisteredNoIdentity   ClientState = "registered_no_identity"
	ClientStateRegisteredWithIdentity ClientState = "registered_with_identity"
)

func (s ClientState) String() string {
	return string(s)
}

// Client is a registered participant, addressed by its display name and
// optionally bound to one external identity.
type Client struct {
	id        types.ID
	name      string
	identity  types.Optional[string]
	createdAt types.Timestamp
	updatedAt types.Timestamp
}

// NewClient creates a new, not yet persisted Client.
func NewClient(name string) (*Client, error) {
	if name == "" {
		return nil, domainerror.ErrClientNameRequired
	}

	now := types.Now()

	return &Client{
		id:        types.NewID(),
		name:      name,
		identity:  types.None[string](),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructClient creates a Client from persisted data (bypasses validation).
func ReconstructClient(
	id types.ID,
	name string,
	identity types.Optional[string],
	createdAt types.Timestamp,
	updatedAt types.Timestamp,
) *Client {
	return &Client{
		id:        id,
		name:      name,
		identity:  identity,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Getters

func (c *Client) ID() types.ID                     { return c.id }
func (c *Client) Name() string                     { return c.name }
func (c *Client) Identity() types.Optional[string] { return c.identity }
func (c *Client) CreatedAt() types.Timestamp       { return c.createdAt }
func (c *Client) UpdatedAt() types.Timestamp       { return c.updatedAt }

// Commands

// LinkIdentity binds the client to an identity. A client that already holds
// an identity keeps it unless the same identity is presented again.
func (c *Client) LinkIdentity(identity string) error {
	if identity == "" {
		return domainerror.ErrIdentityRequired
	}
	if c.identity.IsPresent() {
		return c.VerifyIdentity(identity)
	}
	c.identity = types.Some(identity)
	c.updatedAt = types.Now()
	return nil
}

// Queries

// VerifyIdentity returns nil only when the client is bound to exactly this
// identity. A client without an identity never verifies.
func (c *Client) VerifyIdentity(identity string) error {
	if c.identity.IsPresent() && c.identity.MustGet() == identity {
		return nil
	}
	return domainerror.ErrIdentityConflict
}

// HasIdentity reports whether the client is bound to an identity.
func (c *Client) HasIdentity() bool {
	return c.identity.IsPresent()
}

// State reports the lifecycle state of a persisted client.
func (c *Client) State() ClientState {
	if c.identity.IsPresent() {
		return ClientStateRegisteredWithIdentity
	}
	return ClientStateRegisteredNoIdentity
}
