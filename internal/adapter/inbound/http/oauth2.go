package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/security"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

const principalContextKey = "linker.principal"

// OAuth2Client runs the authorization-code flow in front of the linker
// handlers. It owns state and PKCE bookkeeping and leaves a verified
// Principal in a freshly rotated session.
type OAuth2Client struct {
	authenticator oauth.Authenticator
	sessions      session.Store
	cookie        CookieConfig
	logger        log.Logger
}

// NewOAuth2Client creates the OAuth2 client middleware. The cookie config
// must match the one given to Sessions.
func NewOAuth2Client(
	authenticator oauth.Authenticator,
	sessions session.Store,
	cookie CookieConfig,
	logger log.Logger,
) *OAuth2Client {
	return &OAuth2Client{
		authenticator: authenticator,
		sessions:      sessions,
		cookie:        cookie.normalize(),
		logger:        logger,
	}
}

// Authorize redirects to the provider named in the path. A fresh state and
// PKCE verifier are kept in the session for the callback.
func (m *OAuth2Client) Authorize(c *gin.Context) {
	ctx := c.Request.Context()

	providerName := c.Param("provider")
	provider, err := m.authenticator.Provider(providerName)
	if err != nil {
		m.logger.Warn("unknown oauth provider", log.String("provider", providerName))
		writeError(c, err)
		return
	}

	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	state, err := security.RandomBase64URL(32)
	if err != nil {
		writeError(c, fmt.Errorf("failed to generate state: %w", err))
		return
	}
	verifier := oauth2.GenerateVerifier()

	if err := setAttributes(ctx, sess, map[string]string{
		session.AttributeOAuthState:    state,
		session.AttributeOAuthVerifier: verifier,
		session.AttributeOAuthProvider: provider.Name(),
	}); err != nil {
		writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, provider.AuthCodeURL(state, verifier))
}

// Callback validates the provider redirect, exchanges the code and stores
// the resulting principal in a new session. Nothing from the pre-login
// session survives, including a client name bound to an earlier principal.
// Handlers after it see the principal in context.
func (m *OAuth2Client) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if reason := c.Query("error"); reason != "" {
		m.logger.Warn("oauth provider rejected authorization", log.String("reason", reason))
		writeError(c, domainerror.ErrOAuthProviderRejectedAuth)
		return
	}

	code := c.Query("code")
	if code == "" {
		writeError(c, domainerror.ErrOAuthCodeRequired)
		return
	}

	expected, err := sess.Attribute(ctx, session.AttributeOAuthState)
	if err != nil {
		writeError(c, err)
		return
	}
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		m.logger.Warn("oauth state mismatch", log.String("session", sess.ID()))
		writeError(c, domainerror.ErrOAuthStateInvalid)
		return
	}

	providerName, err := sess.Attribute(ctx, session.AttributeOAuthProvider)
	if err != nil {
		writeError(c, err)
		return
	}
	verifier, err := sess.Attribute(ctx, session.AttributeOAuthVerifier)
	if err != nil {
		writeError(c, err)
		return
	}

	// State is single use
	for _, key := range []string{
		session.AttributeOAuthState,
		session.AttributeOAuthVerifier,
		session.AttributeOAuthProvider,
	} {
		if err := sess.RemoveAttribute(ctx, key); err != nil {
			writeError(c, err)
			return
		}
	}

	provider, err := m.authenticator.Provider(providerName)
	if err != nil {
		writeError(c, err)
		return
	}

	principal, err := provider.Exchange(ctx, code, verifier)
	if err != nil {
		m.logger.Warn("oauth code exchange failed",
			log.String("provider", providerName),
			log.String("error", err.Error()),
		)
		writeError(c, domainerror.ErrOAuthCodeExchangeFailed)
		return
	}

	data, err := json.Marshal(principal)
	if err != nil {
		writeError(c, fmt.Errorf("failed to encode principal: %w", err))
		return
	}

	rotated, err := m.rotate(c, sess)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := rotated.SetAttribute(ctx, session.AttributePrincipal, string(data)); err != nil {
		writeError(c, err)
		return
	}

	c.Set(principalContextKey, principal)
	c.Next()
}

// rotate replaces sess with a new empty session under a new id, drops the
// old one and reissues the cookie.
func (m *OAuth2Client) rotate(c *gin.Context, sess session.Handle) (session.Handle, error) {
	ctx := c.Request.Context()

	fresh, err := m.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	if err := m.sessions.Delete(ctx, sess.ID()); err != nil {
		m.logger.Warn("failed to delete pre-login session", log.String("error", err.Error()))
	}

	setCookie(c.Writer, m.cookie, fresh.ID())
	c.Set(sessionContextKey, fresh)
	return fresh, nil
}

// principalFromSession returns the principal stored by Callback, or nil when
// the session has not authenticated.
func principalFromSession(c *gin.Context, sess session.Handle) (*model.Principal, error) {
	if v, ok := c.Get(principalContextKey); ok {
		if p, ok := v.(*model.Principal); ok {
			return p, nil
		}
	}

	raw, err := sess.Attribute(c.Request.Context(), session.AttributePrincipal)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var p model.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode principal: %w", err)
	}
	return &p, nil
}

func setAttributes(ctx context.Context, sess session.Handle, attrs map[string]string) error {
	for k, v := range attrs {
		if err := sess.SetAttribute(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
