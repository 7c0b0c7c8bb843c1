// Package testutil provides testing utilities for the linker.
package testutil

import (
	"github.com/0xsj/overwatch-pkg/types"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
)

// Fixtures provides builders for domain models in tests.
var Fixtures = &fixtures{}

type fixtures struct{}

// --- Principal ---

// Principal creates a principal issued by authority with the given name attribute.
func (f *fixtures) Principal(authority, name string) *model.Principal {
	p, err := model.NewPrincipal(authority, map[string]string{
		model.AttributeName:    name,
		model.AttributeSubject: name,
	})
	if err != nil {
		panic("fixtures: failed to create principal: " + err.Error())
	}
	return p
}

// --- Client ---

// Client creates an unlinked client.
func (f *fixtures) Client(name string) *model.Client {
	client, err := model.NewClient(name)
	if err != nil {
		panic("fixtures: failed to create client: " + err.Error())
	}
	return client
}

// LinkedClient creates a client already linked to the principal's identity.
func (f *fixtures) LinkedClient(name string, principal *model.Principal) *model.Client {
	client := f.Client(name)
	if err := client.LinkIdentity(principal.Identity()); err != nil {
		panic("fixtures: failed to link client: " + err.Error())
	}
	return client
}

// LegacyClient creates a stored client whose identity was never recorded.
func (f *fixtures) LegacyClient(name string) *model.Client {
	now := types.Now()
	return model.ReconstructClient(types.NewID(), name, types.None[string](), now, now)
}
