package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xsj/overwatch-pkg/log"

	"github.com/0xsj/overwatch-linker/internal/port/inbound/command"
	"github.com/0xsj/overwatch-linker/internal/port/inbound/query"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

// HandlerConfig holds all dependencies for the HTTP handler.
type HandlerConfig struct {
	// Commands
	LinkClientHandler      command.LinkClientHandler
	ObserveCallbackHandler command.ObserveCallbackHandler

	// Queries
	GetSessionClientHandler query.GetSessionClientHandler
	GetClientHandler        query.GetClientHandler

	Sessions      session.Store
	Authenticator oauth.Authenticator
	Cookie        CookieConfig
	Logger        log.Logger
}

// Handler serves the linker endpoints.
type Handler struct {
	linkClient       command.LinkClientHandler
	observeCallback  command.ObserveCallbackHandler
	getSessionClient query.GetSessionClientHandler
	getClient        query.GetClientHandler
	sessions         session.Store
	authenticator    oauth.Authenticator
	cookie           CookieConfig
	logger           log.Logger
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		linkClient:       cfg.LinkClientHandler,
		observeCallback:  cfg.ObserveCallbackHandler,
		getSessionClient: cfg.GetSessionClientHandler,
		getClient:        cfg.GetClientHandler,
		sessions:         cfg.Sessions,
		authenticator:    cfg.Authenticator,
		cookie:           cfg.Cookie.normalize(),
		logger:           cfg.Logger,
	}
}

// Login binds the authenticated session to the requested display name.
func (h *Handler) Login(c *gin.Context) {
	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	principal, err := principalFromSession(c, sess)
	if err != nil {
		writeError(c, err)
		return
	}

	_, err = h.linkClient.Handle(c.Request.Context(), command.LinkClient{
		Name:      c.Query("name"),
		Principal: principal,
		Session:   sess,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Callback runs after OAuth2Client.Callback has stored the principal.
func (h *Handler) Callback(c *gin.Context) {
	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	principal, err := principalFromSession(c, sess)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.observeCallback.Handle(c.Request.Context(), command.ObserveCallback{
		Code:      c.Query("code"),
		State:     c.Query("state"),
		Principal: principal,
	}); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// Me returns the display name the session is logged in as.
func (h *Handler) Me(c *gin.Context) {
	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.getSessionClient.Handle(c.Request.Context(), query.GetSessionClient{Session: sess})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": result.Client.Name(),
	})
}

// Logout drops the session and its cookie.
func (h *Handler) Logout(c *gin.Context) {
	sess, err := currentSession(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), sess.ID()); err != nil {
		writeError(c, err)
		return
	}
	clearCookie(c.Writer, h.cookie)

	c.Status(http.StatusNoContent)
}

// GetClient reports whether a display name is taken.
func (h *Handler) GetClient(c *gin.Context) {
	result, err := h.getClient.Handle(c.Request.Context(), query.GetClient{Name: c.Param("name")})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":   result.Client.Name(),
		"linked": result.Client.HasIdentity(),
	})
}

// Providers lists the configured OAuth2 registrations.
func (h *Handler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.authenticator.Providers(),
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
