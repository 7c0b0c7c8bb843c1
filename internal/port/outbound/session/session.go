package session

import (
	"context"
)

// Well-known session attribute keys.
const (
	AttributePrincipal     = "oauth2.principal"
	AttributeOAuthState    = "oauth2.state"
	AttributeOAuthVerifier = "oauth2.verifier"
	AttributeOAuthProvider = "oauth2.provider"
)

// Handle is the current request's session.
type Handle interface {
	// ID returns the opaque session identifier.
	ID() string

	// Attribute returns the value stored under key, or "" if unset.
	Attribute(ctx context.Context, key string) (string, error)

	// SetAttribute stores value under key.
	SetAttribute(ctx context.Context, key string, value string) error

	// RemoveAttribute deletes key from the session.
	RemoveAttribute(ctx context.Context, key string) error
}

// Store creates and loads sessions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create starts a new empty session.
	Create(ctx context.Context) (Handle, error)

	// Get loads an existing session.
	// Returns domainerror.ErrSessionNotFound when it does not exist or expired.
	Get(ctx context.Context, id string) (Handle, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
