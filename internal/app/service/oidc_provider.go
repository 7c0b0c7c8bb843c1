package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
)

// Well-known OIDC issuers.
const (
	GoogleIssuer = "https://accounts.google.com"
)

// OIDCConfig configures an OpenID Connect provider discovered from its issuer.
type OIDCConfig struct {
	// Name is the registration id, used as the principal authority.
	Name         string
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// oidcProvider implements oauth.Provider against any OIDC issuer
// (google, keycloak, ...).
type oidcProvider struct {
	name        string
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewOIDCProvider initializes an OIDC provider using discovery.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (oauth.Provider, error) {
	if cfg.Name == "" || cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oidc provider config missing required fields")
	}

	discovered, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s oidc provider: %w", cfg.Name, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &oidcProvider{
		name: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     discovered.Endpoint(),
			Scopes:       scopes,
		},
		verifier: discovered.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *oidcProvider) Name() string {
	return p.name
}

// AuthCodeURL builds the authorization URL with S256 PKCE.
func (p *oidcProvider) AuthCodeURL(state string, verifier string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
}

// Exchange trades the code for tokens and verifies the id_token.
// This method must not create clients or sessions.
func (p *oidcProvider) Exchange(ctx context.Context, code string, verifier string) (*model.Principal, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return id_token", p.name)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", p.name, err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Name              string `json:"name"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s id_token claims parse failed: %w", p.name, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s id_token missing subject", p.name)
	}

	return model.NewPrincipal(p.name, oidcAttributes(claims.Subject, claims.Name, claims.Email, claims.PreferredUsername))
}

func oidcAttributes(subject, name, email, preferredUsername string) map[string]string {
	attrs := map[string]string{
		model.AttributeSubject: subject,
		model.AttributeName:    name,
	}
	if email != "" {
		attrs[model.AttributeEmail] = email
	}
	if preferredUsername != "" {
		attrs[model.AttributeLogin] = preferredUsername
	}
	return attrs
}
