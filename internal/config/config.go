package config

import (
	"fmt"
	"strings"
	"time"

	config "github.com/0xsj/overwatch-pkg/config"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the linker service.
type Config struct {
	Server   ServerConfig
	Health   HealthConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Session  SessionConfig
	Cache    CacheConfig
	OAuth    OAuthConfig
	HTTP     HTTPConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// HealthConfig holds the gRPC health server configuration.
type HealthConfig struct {
	Host             string `env:"HEALTH_GRPC_HOST" default:"0.0.0.0"`
	Port             int    `env:"HEALTH_GRPC_PORT" default:"50061"`
	EnableReflection bool   `env:"HEALTH_ENABLE_REFLECTION" default:"true"`
}

// StoreConfig selects the client repository and session store backend.
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" default:"postgres"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host              string        `env:"DATABASE_HOST" default:"localhost"`
	Port              int           `env:"DATABASE_PORT" default:"5450"`
	User              string        `env:"DATABASE_USER" default:"overwatch"`
	Password          string        `env:"DATABASE_PASSWORD" default:"overwatch" sensitive:"true"`
	Database          string        `env:"DATABASE_NAME" default:"overwatch_linker"`
	SSLMode           string        `env:"DATABASE_SSL_MODE" default:"disable"`
	MaxConns          int           `env:"DATABASE_MAX_CONNS" default:"25"`
	MinConns          int           `env:"DATABASE_MIN_CONNS" default:"5"`
	MaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" default:"30m"`
	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled      bool          `env:"REDIS_ENABLED" default:"true"`
	Host         string        `env:"REDIS_HOST" default:"localhost"`
	Port         int           `env:"REDIS_PORT" default:"6390"`
	Password     string        `env:"REDIS_PASSWORD" default:"" sensitive:"true"`
	DB           int           `env:"REDIS_DB" default:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	Enabled       bool          `env:"NATS_ENABLED" default:"true"`
	URL           string        `env:"NATS_URL" default:"nats://localhost:4230"`
	SubjectPrefix string        `env:"NATS_SUBJECT_PREFIX" default:"overwatch"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" default:"2s"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" default:"__Host-session"`
	TTL             time.Duration `env:"SESSION_TTL" default:"24h"`
	Secure          bool          `env:"SESSION_SECURE" default:"true"`
	ClientAttribute string        `env:"SESSION_CLIENT_ATTRIBUTE" default:"clientName"`
}

// CacheConfig holds client cache configuration.
type CacheConfig struct {
	ClientTTL time.Duration `env:"CLIENT_CACHE_TTL" default:"1h"`
}

// OAuthConfig holds OAuth2 client registrations. A registration with an
// empty client ID is not enabled.
type OAuthConfig struct {
	RedirectURL string `env:"OAUTH_REDIRECT_URL" default:"http://localhost:8080/oauth2/callback"`

	GoogleClientID     string `env:"OAUTH_GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret string `env:"OAUTH_GOOGLE_CLIENT_SECRET" default:"" sensitive:"true"`

	GitHubClientID     string `env:"OAUTH_GITHUB_CLIENT_ID" default:""`
	GitHubClientSecret string `env:"OAUTH_GITHUB_CLIENT_SECRET" default:"" sensitive:"true"`

	KeycloakIssuer       string `env:"OAUTH_KEYCLOAK_ISSUER" default:""`
	KeycloakClientID     string `env:"OAUTH_KEYCLOAK_CLIENT_ID" default:""`
	KeycloakClientSecret string `env:"OAUTH_KEYCLOAK_CLIENT_SECRET" default:"" sensitive:"true"`
}

// HTTPConfig holds HTTP middleware configuration.
type HTTPConfig struct {
	CORSOrigins string `env:"HTTP_CORS_ORIGINS" default:""`
	RateLimit   int    `env:"HTTP_RATE_LIMIT" default:"50"`
	RateBurst   int    `env:"HTTP_RATE_BURST" default:"100"`
	RateClients int    `env:"HTTP_RATE_CLIENTS" default:"10000"`
	Metrics     bool   `env:"HTTP_METRICS_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.WithPrefix("LINKER_")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.OAuth.KeycloakClientID != "" && c.OAuth.KeycloakIssuer == "" {
		return fmt.Errorf("keycloak issuer is required when keycloak client id is set")
	}
	if strings.HasPrefix(c.Session.CookieName, "__Host-") && !c.Session.Secure {
		return fmt.Errorf("cookie %q requires a secure session", c.Session.CookieName)
	}
	return nil
}

// Address returns the HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins returns the configured CORS origins.
func (c *HTTPConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
