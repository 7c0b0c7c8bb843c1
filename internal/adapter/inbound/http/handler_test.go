package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-linker/internal/adapter/outbound/memory"
	appcommand "github.com/0xsj/overwatch-linker/internal/app/command"
	appquery "github.com/0xsj/overwatch-linker/internal/app/query"
	"github.com/0xsj/overwatch-linker/internal/app/service"
	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/domain/model"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeProvider issues a principal whose name attribute is the code.
type fakeProvider struct{}

func (fakeProvider) Name() string { return "fake" }

func (fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(ctx context.Context, code, verifier string) (*model.Principal, error) {
	if code == "bad" {
		return nil, errors.New("invalid_grant")
	}
	return model.NewPrincipal("fake", map[string]string{model.AttributeName: code})
}

type testEnv struct {
	engine *gin.Engine
	store  *memory.SessionStore
}

func newTestEnv(t *testing.T, routerCfg RouterConfig) *testEnv {
	t.Helper()

	logger := log.NewPretty(log.DefaultConfig())
	repo := memory.NewClientRepository()
	store := memory.NewSessionStore(0)
	t.Cleanup(func() { _ = store.Close() })
	registry := service.NewProviderRegistry(fakeProvider{})
	cookie := CookieConfig{}

	handler := NewHandler(HandlerConfig{
		LinkClientHandler: appcommand.NewLinkClientHandler(
			repo, nil, messaging.NopPublisher{}, metrics.Nop{}, logger, appcommand.LinkClientConfig{},
		),
		ObserveCallbackHandler:  appcommand.NewObserveCallbackHandler(metrics.Nop{}, logger),
		GetSessionClientHandler: appquery.NewGetSessionClientHandler(repo, nil, appcommand.DefaultClientAttribute),
		GetClientHandler:        appquery.NewGetClientHandler(repo, nil),
		Sessions:                store,
		Authenticator:           registry,
		Cookie:                  cookie,
		Logger:                  logger,
	})

	engine := NewRouter(
		routerCfg,
		handler,
		NewOAuth2Client(registry, store, cookie, logger),
		Sessions(store, cookie, logger),
		logger,
	)
	return &testEnv{engine: engine, store: store}
}

// browser keeps the session cookie between requests.
type browser struct {
	env    *testEnv
	ip     string
	cookie *http.Cookie
}

func (b *browser) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if b.ip != "" {
		req.RemoteAddr = b.ip + ":40000"
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.env.engine.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			if c.MaxAge < 0 {
				b.cookie = nil
			} else {
				b.cookie = c
			}
		}
	}
	return rec
}

// authenticate runs the authorization-code flow with code as the user name.
func (b *browser) authenticate(t *testing.T, code string) {
	t.Helper()

	rec := b.do(t, http.MethodGet, "/oauth2/authorization/fake")
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	rec = b.do(t, http.MethodGet, "/oauth2/callback?code="+url.QueryEscape(code)+"&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	alice := &browser{env: env}

	alice.authenticate(t, "alice")

	rec := alice.do(t, http.MethodGet, "/oauth2/login?name=alice")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = alice.do(t, http.MethodGet, "/oauth2/me")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"alice"}`, rec.Body.String())

	// Returning login is idempotent
	rec = alice.do(t, http.MethodGet, "/oauth2/login?name=alice")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = alice.do(t, http.MethodGet, "/clients/alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"alice","linked":true}`, rec.Body.String())
}

func TestLogin_Conflict(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	alice := &browser{env: env}
	alice.authenticate(t, "alice")
	require.Equal(t, http.StatusNoContent, alice.do(t, http.MethodGet, "/oauth2/login?name=alice").Code)

	mallory := &browser{env: env}
	mallory.authenticate(t, "mallory")

	rec := mallory.do(t, http.MethodGet, "/oauth2/login?name=alice")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "someone else uses this name", decodeError(t, rec).Message)

	// The rejected session stays logged out
	rec = mallory.do(t, http.MethodGet, "/oauth2/me")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	t.Run("missing name", func(t *testing.T) {
		b := &browser{env: env}
		b.authenticate(t, "alice")

		rec := b.do(t, http.MethodGet, "/oauth2/login")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not authenticated", func(t *testing.T) {
		b := &browser{env: env}

		rec := b.do(t, http.MethodGet, "/oauth2/login?name=bob")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = b.do(t, http.MethodGet, "/clients/bob")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCallback_Rejections(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"provider error", "?error=access_denied", http.StatusUnauthorized},
		{"missing code", "?state=x", http.StatusBadRequest},
		{"state mismatch", "?code=alice&state=forged", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &browser{env: env}
			require.Equal(t, http.StatusFound, b.do(t, http.MethodGet, "/oauth2/authorization/fake").Code)

			rec := b.do(t, http.MethodGet, "/oauth2/callback"+tt.query)
			assert.Equal(t, tt.status, rec.Code)

			// No principal was stored
			rec = b.do(t, http.MethodGet, "/oauth2/login?name=alice")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}

	rec := b.do(t, http.MethodGet, "/oauth2/authorization/fake")
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	rec = b.do(t, http.MethodGet, "/oauth2/callback?code=bad&state="+url.QueryEscape(state))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = b.do(t, http.MethodGet, "/oauth2/callback?code=alice&state="+url.QueryEscape(state))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallback_RotatesSession(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}

	require.Equal(t, http.StatusFound, b.do(t, http.MethodGet, "/oauth2/authorization/fake").Code)
	preLogin := b.cookie.Value

	b.authenticate(t, "alice")
	require.NotEqual(t, preLogin, b.cookie.Value)

	// The pre-login session id is dead
	_, err := env.store.Get(context.Background(), preLogin)
	assert.Equal(t, domainerror.ErrSessionNotFound, err)

	require.Equal(t, http.StatusNoContent, b.do(t, http.MethodGet, "/oauth2/login?name=alice").Code)
	aliceSession := b.cookie.Value

	// A new principal in the same browser does not inherit the bound name
	b.authenticate(t, "bob")
	require.NotEqual(t, aliceSession, b.cookie.Value)

	rec := b.do(t, http.MethodGet, "/oauth2/me")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.do(t, http.MethodGet, "/oauth2/login?name=alice")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "IDENTITY_CONFLICT", decodeError(t, rec).Code)
}

func TestSessions_RefreshesCookie(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}
	b.authenticate(t, "alice")
	id := b.cookie.Value

	rec := b.do(t, http.MethodGet, "/oauth2/me")

	var refreshed *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCookieName {
			refreshed = c
		}
	}
	require.NotNil(t, refreshed)
	assert.Equal(t, id, refreshed.Value)
	assert.True(t, refreshed.Expires.After(time.Now().Add(23*time.Hour)))
}

func TestAuthorize_UnknownProvider(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}

	rec := b.do(t, http.MethodGet, "/oauth2/authorization/facebook")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}
	b.authenticate(t, "alice")
	require.Equal(t, http.StatusNoContent, b.do(t, http.MethodGet, "/oauth2/login?name=alice").Code)

	rec := b.do(t, http.MethodPost, "/oauth2/logout")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, b.cookie)

	rec = b.do(t, http.MethodGet, "/oauth2/me")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvidersAndHealth(t *testing.T) {
	env := newTestEnv(t, RouterConfig{})
	b := &browser{env: env}

	rec := b.do(t, http.MethodGet, "/oauth2/providers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":["fake"]}`, rec.Body.String())

	rec = b.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	limiter, err := NewClientLimiter(0.001, 2, 16)
	require.NoError(t, err)
	env := newTestEnv(t, RouterConfig{RateLimiter: limiter})

	first := &browser{env: env, ip: "203.0.113.1"}
	assert.Equal(t, http.StatusOK, first.do(t, http.MethodGet, "/oauth2/providers").Code)
	assert.Equal(t, http.StatusOK, first.do(t, http.MethodGet, "/oauth2/providers").Code)

	rec := first.do(t, http.MethodGet, "/oauth2/providers")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, rec).Code)

	// Another client keeps its own bucket
	second := &browser{env: env, ip: "198.51.100.7"}
	assert.Equal(t, http.StatusOK, second.do(t, http.MethodGet, "/oauth2/providers").Code)

	// Routes outside /oauth2 are not limited
	assert.Equal(t, http.StatusOK, first.do(t, http.MethodGet, "/health").Code)
}

func TestClientLimiter_EvictsLeastRecentClient(t *testing.T) {
	limiter, err := NewClientLimiter(0.001, 1, 2)
	require.NoError(t, err)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	assert.True(t, limiter.Allow("b"))
	assert.True(t, limiter.Allow("c"))
	assert.Equal(t, 2, limiter.Len())

	// "a" was evicted and starts with a full bucket
	assert.True(t, limiter.Allow("a"))
}

func TestNewClientLimiter_RejectsZeroCapacity(t *testing.T) {
	_, err := NewClientLimiter(1, 1, 0)
	assert.Error(t, err)
}

func TestWriteError_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"identity conflict", domainerror.ErrIdentityConflict, http.StatusConflict, "IDENTITY_CONFLICT"},
		{"name required", domainerror.ErrClientNameRequired, http.StatusBadRequest, "CLIENT_NAME_REQUIRED"},
		{"client not found", domainerror.ErrClientNotFound, http.StatusNotFound, "CLIENT_NOT_FOUND"},
		{"principal required", domainerror.ErrPrincipalRequired, http.StatusUnauthorized, "PRINCIPAL_REQUIRED"},
		{"state invalid", domainerror.ErrOAuthStateInvalid, http.StatusUnauthorized, "OAUTH_STATE_INVALID"},
		{"wrapped", fmt.Errorf("link: %w", domainerror.ErrIdentityConflict), http.StatusConflict, "IDENTITY_CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Empty(t, c.Errors)
		})
	}
}

func TestWriteError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	writeError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body.Message)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Len(t, c.Errors, 1)
}
