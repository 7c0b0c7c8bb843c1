package service

import (
	"sort"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
)

// ProviderRegistry holds all configured OAuth providers and allows lookup by
// registration id. It performs no auth logic itself.
type ProviderRegistry struct {
	providers map[string]oauth.Provider
}

// NewProviderRegistry registers the given providers by name. A later
// provider with the same name replaces an earlier one.
func NewProviderRegistry(list ...oauth.Provider) *ProviderRegistry {
	m := make(map[string]oauth.Provider, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &ProviderRegistry{providers: m}
}

var _ oauth.Authenticator = (*ProviderRegistry)(nil)

// Provider returns the provider registered under name.
func (r *ProviderRegistry) Provider(name string) (oauth.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domainerror.ErrOAuthProviderUnknown
	}
	return p, nil
}

// Providers returns the sorted registration ids.
func (r *ProviderRegistry) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
