package model

import (
	"encoding/json"
	"maps"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
)

// Standard principal attribute names.
const (
	AttributeName    = "name"
	AttributeSubject = "sub"
	AttributeEmail   = "email"
	AttributeLogin   = "login"
)

// identitySeparator joins authority and name attribute in a derived identity.
const identitySeparator = ":"

// Principal is an externally authenticated OAuth2 identity for the current
// session. Instances are built by the OAuth2 layer after the provider response
// has been verified; the rest of the service treats them as read-only.
type Principal struct {
	authorityID string
	attributes  map[string]string
}

// NewPrincipal creates a Principal issued by the given authority.
func NewPrincipal(authorityID string, attributes map[string]string) (*Principal, error) {
	if authorityID == "" {
		return nil, domainerror.ErrAuthorityIDRequired
	}

	attrs := make(map[string]string, len(attributes))
	maps.Copy(attrs, attributes)

	return &Principal{
		authorityID: authorityID,
		attributes:  attrs,
	}, nil
}

// AuthorityID returns the registration id of the provider that authenticated
// the principal (e.g. "google").
func (p *Principal) AuthorityID() string { return p.authorityID }

// Attribute returns a provider-supplied attribute, or "" when absent.
func (p *Principal) Attribute(name string) string { return p.attributes[name] }

// Attributes returns a copy of all attributes.
func (p *Principal) Attributes() map[string]string {
	return maps.Clone(p.attributes)
}

// Identity returns the stable identity string derived from the principal.
func (p *Principal) Identity() string {
	return DeriveIdentity(p)
}

// DeriveIdentity maps a principal to its identity key: the authority id and
// the name attribute joined by a colon. The result is stored verbatim.
func DeriveIdentity(p *Principal) string {
	return p.AuthorityID() + identitySeparator + p.Attribute(AttributeName)
}

type principalJSON struct {
	AuthorityID string            `json:"authority_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

func (p *Principal) MarshalJSON() ([]byte, error) {
	return json.Marshal(principalJSON{
		AuthorityID: p.authorityID,
		Attributes:  p.attributes,
	})
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var raw principalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.AuthorityID == "" {
		return domainerror.ErrAuthorityIDRequired
	}
	p.authorityID = raw.AuthorityID
	p.attributes = raw.Attributes
	if p.attributes == nil {
		p.attributes = make(map[string]string)
	}
	return nil
}
