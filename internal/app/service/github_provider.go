package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
)

const githubUserURL = "https://api.github.com/user"

// GitHubConfig configures the GitHub OAuth2 provider. GitHub has no OIDC
// discovery, so the profile comes from the user API.
type GitHubConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserURL default to github.com.
	Endpoint oauth2.Endpoint
	UserURL  string
}

type githubProvider struct {
	name        string
	oauthConfig *oauth2.Config
	userURL     string
}

// NewGitHubProvider creates a GitHub provider.
func NewGitHubProvider(cfg GitHubConfig) (oauth.Provider, error) {
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("github provider config missing required fields")
	}
	if cfg.Name == "" {
		cfg.Name = "github"
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = github.Endpoint
	}
	if cfg.UserURL == "" {
		cfg.UserURL = githubUserURL
	}

	return &githubProvider{
		name: cfg.Name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		userURL: cfg.UserURL,
	}, nil
}

func (p *githubProvider) Name() string {
	return p.name
}

func (p *githubProvider) AuthCodeURL(state string, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *githubProvider) Exchange(ctx context.Context, code string, verifier string) (*model.Principal, error) {
	token, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("user request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%s user response missing id", p.name)
	}

	attrs := map[string]string{
		model.AttributeSubject: strconv.FormatInt(user.ID, 10),
		model.AttributeName:    user.Name,
		model.AttributeLogin:   user.Login,
	}
	if user.Email != "" {
		attrs[model.AttributeEmail] = user.Email
	}

	return model.NewPrincipal(p.name, attrs)
}
