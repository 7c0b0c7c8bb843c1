package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	natsclient "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/0xsj/overwatch-pkg/log"

	healthgrpc "github.com/0xsj/overwatch-linker/internal/adapter/inbound/grpc"
	linkerhttp "github.com/0xsj/overwatch-linker/internal/adapter/inbound/http"
	"github.com/0xsj/overwatch-linker/internal/adapter/outbound/memory"
	"github.com/0xsj/overwatch-linker/internal/adapter/outbound/metrics"
	natsadapter "github.com/0xsj/overwatch-linker/internal/adapter/outbound/nats"
	"github.com/0xsj/overwatch-linker/internal/adapter/outbound/postgres"
	rediscache "github.com/0xsj/overwatch-linker/internal/adapter/outbound/redis"
	"github.com/0xsj/overwatch-linker/internal/app/command"
	"github.com/0xsj/overwatch-linker/internal/app/query"
	"github.com/0xsj/overwatch-linker/internal/app/service"
	"github.com/0xsj/overwatch-linker/internal/config"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/oauth"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/repository"
	"github.com/0xsj/overwatch-linker/internal/port/outbound/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := log.NewPretty(log.DefaultConfig())

	logger.Info("starting linker service",
		log.String("version", "1.0.0"),
		log.String("address", cfg.Server.Address()),
		log.String("store", cfg.Store.Driver),
	)

	// Initialize repository
	var clientRepo repository.ClientRepository
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := connectPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		clientRepo = postgres.NewClientRepository(pool)
	default:
		logger.Warn("using in-memory client store; names are lost on restart")
		clientRepo = memory.NewClientRepository()
	}

	// Initialize sessions and cache
	var (
		sessions    session.Store
		clientCache cache.ClientCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := connectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		sessions = rediscache.NewSessionStore(redisClient, cfg.Session.TTL)
		clientCache = rediscache.NewClientCache(redisClient, cfg.Cache.ClientTTL)
	} else {
		memorySessions := memory.NewSessionStore(cfg.Session.TTL)
		defer memorySessions.Close()
		sessions = memorySessions
	}

	// Initialize event publisher
	var publisher messaging.EventPublisher = messaging.NopPublisher{}
	if cfg.NATS.Enabled {
		natsConn, err := connectNATS(cfg.NATS, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsConn.Close()

		publisher = natsadapter.NewEventPublisher(natsConn, cfg.NATS.SubjectPrefix)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder("linker")
	if err := recorder.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	// Initialize OAuth2 providers
	providers, err := buildProviders(ctx, cfg.OAuth, logger)
	if err != nil {
		return fmt.Errorf("failed to configure oauth providers: %w", err)
	}
	authenticator := service.NewProviderRegistry(providers...)

	// Initialize command and query handlers
	linkClientHandler := command.NewLinkClientHandler(
		clientRepo,
		clientCache,
		publisher,
		recorder,
		logger,
		command.LinkClientConfig{
			ClientAttribute: cfg.Session.ClientAttribute,
			CacheTTL:        cfg.Cache.ClientTTL,
		},
	)
	observeCallbackHandler := command.NewObserveCallbackHandler(recorder, logger)
	getSessionClientHandler := query.NewGetSessionClientHandler(clientRepo, clientCache, cfg.Session.ClientAttribute)
	getClientHandler := query.NewGetClientHandler(clientRepo, clientCache)

	// Initialize HTTP transport
	cookie := linkerhttp.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	}
	handler := linkerhttp.NewHandler(linkerhttp.HandlerConfig{
		LinkClientHandler:       linkClientHandler,
		ObserveCallbackHandler:  observeCallbackHandler,
		GetSessionClientHandler: getSessionClientHandler,
		GetClientHandler:        getClientHandler,
		Sessions:                sessions,
		Authenticator:           authenticator,
		Cookie:                  cookie,
		Logger:                  logger,
	})

	routerCfg := linkerhttp.RouterConfig{
		CORSOrigins: cfg.HTTP.Origins(),
	}
	if cfg.HTTP.RateLimit > 0 {
		limiter, err := linkerhttp.NewClientLimiter(float64(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst, cfg.HTTP.RateClients)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
		routerCfg.RateLimiter = limiter
	}
	if cfg.HTTP.Metrics {
		routerCfg.Observer = recorder
		routerCfg.Gatherer = registry
	}

	router := linkerhttp.NewRouter(
		routerCfg,
		handler,
		linkerhttp.NewOAuth2Client(authenticator, sessions, cookie, logger),
		linkerhttp.Sessions(sessions, cookie, logger),
		logger,
	)

	httpServer := linkerhttp.NewServer(linkerhttp.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, router, logger)

	// Initialize health server
	healthServer, err := healthgrpc.NewServer(healthgrpc.ServerConfig{
		Host:             cfg.Health.Host,
		Port:             cfg.Health.Port,
		EnableReflection: cfg.Health.EnableReflection,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create health server: %w", err)
	}
	if err := healthServer.Listen(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(healthServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down linker service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		healthServer.SetServing(false)
		return errors.Join(
			httpServer.Stop(shutdownCtx),
			healthServer.Stop(shutdownCtx),
		)
	})

	healthServer.SetServing(true)
	logger.Info("linker service started",
		log.String("http", cfg.Server.Address()),
		log.String("health", healthServer.Address()),
		log.Any("providers", authenticator.Providers()),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("linker service stopped gracefully")
	return nil
}

// buildProviders creates every registration with a client ID configured.
func buildProviders(ctx context.Context, cfg config.OAuthConfig, logger log.Logger) ([]oauth.Provider, error) {
	var providers []oauth.Provider

	if cfg.GoogleClientID != "" {
		p, err := service.NewOIDCProvider(ctx, service.OIDCConfig{
			Name:         "google",
			Issuer:       service.GoogleIssuer,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
		})
		if err != nil {
			return nil, fmt.Errorf("google: %w", err)
		}
		providers = append(providers, p)
	}

	if cfg.KeycloakClientID != "" {
		p, err := service.NewOIDCProvider(ctx, service.OIDCConfig{
			Name:         "keycloak",
			Issuer:       cfg.KeycloakIssuer,
			ClientID:     cfg.KeycloakClientID,
			ClientSecret: cfg.KeycloakClientSecret,
			RedirectURL:  cfg.RedirectURL,
		})
		if err != nil {
			return nil, fmt.Errorf("keycloak: %w", err)
		}
		providers = append(providers, p)
	}

	if cfg.GitHubClientID != "" {
		p, err := service.NewGitHubProvider(service.GitHubConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.RedirectURL,
		})
		if err != nil {
			return nil, fmt.Errorf("github: %w", err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		logger.Warn("no oauth providers configured; logins will be rejected")
	}
	return providers, nil
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger log.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres",
		log.String("host", cfg.Host),
		log.String("database", cfg.Database),
	)

	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger log.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis",
		log.String("address", cfg.Address()),
	)

	return client, nil
}

func connectNATS(cfg config.NATSConfig, logger log.Logger) (*natsclient.Conn, error) {
	opts := []natsclient.Option{
		natsclient.Name("overwatch-linker"),
		natsclient.MaxReconnects(cfg.MaxReconnects),
		natsclient.ReconnectWait(cfg.ReconnectWait),
		natsclient.DisconnectErrHandler(func(nc *natsclient.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", log.String("error", err.Error()))
			}
		}),
		natsclient.ReconnectHandler(func(nc *natsclient.Conn) {
			logger.Info("nats reconnected", log.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := natsclient.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	logger.Info("connected to nats",
		log.String("url", conn.ConnectedUrl()),
	)

	return conn, nil
}
