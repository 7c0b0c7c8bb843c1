package oauth

import (
	"context"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// Provider is one configured OAuth2 client registration.
// Implementations return verified identity facts only and never touch
// clients or sessions.
type Provider interface {
	// Name returns the registration id (e.g. "google"); it becomes the
	// principal's authority id.
	Name() string

	// AuthCodeURL returns the provider authorization URL for the given
	// state and PKCE verifier.
	AuthCodeURL(state string, verifier string) string

	// Exchange trades an authorization code for a verified principal.
	Exchange(ctx context.Context, code string, verifier string) (*model.Principal, error)
}

// Authenticator dispatches to configured providers by name.
type Authenticator interface {
	// Provider returns the named provider, or domainerror.ErrOAuthProviderUnknown.
	Provider(name string) (Provider, error)

	// Providers lists the configured registration ids.
	Providers() []string
}
