package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xsj/overwatch-pkg/log"
)

// RouterConfig configures the HTTP routes and middleware.
type RouterConfig struct {
	// CORSOrigins enables CORS when non-empty.
	CORSOrigins []string

	// RateLimiter limits /oauth2 routes per client IP when set.
	RateLimiter *ClientLimiter

	// Observer records HTTP metrics when set.
	Observer HTTPObserver

	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine.
//
//	GET  /oauth2/authorization/:provider
//	GET  /oauth2/callback
//	GET  /oauth2/login?name=
//	GET  /oauth2/me
//	POST /oauth2/logout
//	GET  /oauth2/providers
//	GET  /clients/:name
//	GET  /health
//	GET  /metrics
func NewRouter(
	cfg RouterConfig,
	handler *Handler,
	oauth2Client *OAuth2Client,
	sessions gin.HandlerFunc,
	logger log.Logger,
) *gin.Engine {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))
	if cfg.Observer != nil {
		engine.Use(Metrics(cfg.Observer))
	}
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(CORS(cfg.CORSOrigins))
	}

	engine.GET("/health", handler.Health)
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	engine.GET("/clients/:name", handler.GetClient)

	group := engine.Group("/oauth2")
	if cfg.RateLimiter != nil {
		group.Use(RateLimit(cfg.RateLimiter, logger))
	}
	group.GET("/providers", handler.Providers)

	authed := group.Group("")
	authed.Use(sessions)
	{
		authed.GET("/authorization/:provider", oauth2Client.Authorize)
		authed.GET("/callback", oauth2Client.Callback, handler.Callback)
		authed.GET("/login", handler.Login)
		authed.GET("/me", handler.Me)
		authed.POST("/logout", handler.Logout)
	}

	return engine
}
