package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/0xsj/overwatch-pkg/log"

	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

const (
	// DefaultCookieName is the session cookie name. The __Host- prefix
	// requires Secure, Path=/ and no Domain.
	DefaultCookieName = "__Host-session"

	sessionContextKey = "linker.session"
)

// CookieConfig defines how session cookies are issued.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func (c CookieConfig) normalize() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	if c.TTL <= 0 {
		c.TTL = 24 * time.Hour
	}
	return c
}

// setCookie issues the session cookie.
func setCookie(w http.ResponseWriter, cfg CookieConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    sessionID,
		Path:     "/",
		Expires:  time.Now().Add(cfg.TTL),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie removes the session cookie from the client.
func clearCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Sessions loads the session named by the cookie, or starts a new one when
// the cookie is missing, unknown or expired. The cookie is reissued on every
// request so its expiry slides with the store TTL.
func Sessions(store session.Store, cfg CookieConfig, logger log.Logger) gin.HandlerFunc {
	cfg = cfg.normalize()

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var handle session.Handle
		if id, err := c.Cookie(cfg.Name); err == nil && id != "" {
			handle, err = store.Get(ctx, id)
			if err != nil && !errors.Is(err, domainerror.ErrSessionNotFound) {
				logger.Error("failed to load session", log.String("error", err.Error()))
				writeError(c, err)
				return
			}
		}

		if handle == nil {
			created, err := store.Create(ctx)
			if err != nil {
				logger.Error("failed to create session", log.String("error", err.Error()))
				writeError(c, err)
				return
			}
			handle = created
		}
		setCookie(c.Writer, cfg, handle.ID())

		c.Set(sessionContextKey, handle)
		c.Next()
	}
}

// currentSession returns the session attached by Sessions.
func currentSession(c *gin.Context) (session.Handle, error) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, domainerror.ErrSessionNotFound
	}
	handle, ok := v.(session.Handle)
	if !ok {
		return nil, domainerror.ErrSessionNotFound
	}
	return handle, nil
}
