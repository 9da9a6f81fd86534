package config

import (
	"errors"
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultListenAddr      = ":8080"
	DefaultMetricsAddr     = ":9090"
	DefaultMetricsPath     = "/metrics"
	DefaultCookieName      = "session_id"
	DefaultSessionPrefix   = "sessions"
	DefaultRedisAddr       = "localhost:6379"
	DefaultLookupTimeout   = 2 * time.Second
	DefaultDialTimeout     = 5 * time.Second
	DefaultReadTimeout     = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultBreakerRequests = 10
	DefaultBreakerTimeout  = 30 * time.Second
)

// Config is the top-level configuration for the session authorizer.
type Config struct {
	Listener     ListenerConfig     `yaml:"listener"`
	Authorizer   AuthorizerConfig   `yaml:"authorizer"`
	SessionStore SessionStoreConfig `yaml:"sessionStore"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Tracing      TracingConfig      `yaml:"tracing"`
}

// ListenerConfig configures the HTTP listener.
type ListenerConfig struct {
	// Addr is the address the authorizer endpoint listens on.
	Addr string `yaml:"addr"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout Duration `yaml:"readTimeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout Duration `yaml:"writeTimeout"`

	// ShutdownTimeout bounds graceful shutdown drain time.
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// AuthorizerConfig configures decision construction. The account, region,
// stage and optional gateway ID determine the allow-list computed once at
// startup.
type AuthorizerConfig struct {
	// AccountID is the account identifier used in granted resource patterns.
	AccountID string `yaml:"accountId"`

	// Region is the deployment region used in granted resource patterns.
	Region string `yaml:"region"`

	// Stage is the deployment stage (e.g. "dev", "prod").
	Stage string `yaml:"stage"`

	// GatewayID is the concrete gateway identifier. When empty, the
	// allow-list falls back to a wildcard in the gateway position.
	GatewayID string `yaml:"gatewayId"`

	// CookieName is the cookie key carrying the session token.
	// Defaults to "session_id".
	CookieName string `yaml:"cookieName"`
}

// SessionStoreConfig configures the Redis-backed session store.
type SessionStoreConfig struct {
	// Addr is the Redis server address.
	Addr string `yaml:"addr"`

	// Password is the Redis password. Empty disables AUTH.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`

	// KeyPrefix namespaces session keys. Defaults to "sessions".
	KeyPrefix string `yaml:"keyPrefix"`

	// DialTimeout bounds connection establishment.
	DialTimeout Duration `yaml:"dialTimeout"`

	// LookupTimeout bounds a single session lookup.
	LookupTimeout Duration `yaml:"lookupTimeout"`

	// Breaker configures the circuit breaker around store lookups.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the session store circuit breaker. An open
// breaker short-circuits lookups to a store-unavailable outcome, which
// the authorizer maps to a deny.
type BreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool `yaml:"enabled"`

	// MinRequests is the minimum number of observed requests before the
	// breaker can trip.
	MinRequests int `yaml:"minRequests"`

	// Timeout is how long the breaker stays open before probing.
	Timeout Duration `yaml:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// ApplyDefaults fills in default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = DefaultListenAddr
	}
	if c.Listener.ReadTimeout == 0 {
		c.Listener.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Listener.WriteTimeout == 0 {
		c.Listener.WriteTimeout = Duration(DefaultReadTimeout)
	}
	if c.Listener.ShutdownTimeout == 0 {
		c.Listener.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Authorizer.CookieName == "" {
		c.Authorizer.CookieName = DefaultCookieName
	}
	if c.SessionStore.Addr == "" {
		c.SessionStore.Addr = DefaultRedisAddr
	}
	if c.SessionStore.KeyPrefix == "" {
		c.SessionStore.KeyPrefix = DefaultSessionPrefix
	}
	if c.SessionStore.DialTimeout == 0 {
		c.SessionStore.DialTimeout = Duration(DefaultDialTimeout)
	}
	if c.SessionStore.LookupTimeout == 0 {
		c.SessionStore.LookupTimeout = Duration(DefaultLookupTimeout)
	}
	if c.SessionStore.Breaker.MinRequests == 0 {
		c.SessionStore.Breaker.MinRequests = DefaultBreakerRequests
	}
	if c.SessionStore.Breaker.Timeout == 0 {
		c.SessionStore.Breaker.Timeout = Duration(DefaultBreakerTimeout)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
}

// Validate checks the configuration for missing or inconsistent values.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Authorizer.AccountID == "" {
		errs = append(errs, errors.New("authorizer.accountId is required"))
	}
	if c.Authorizer.Region == "" {
		errs = append(errs, errors.New("authorizer.region is required"))
	}
	if c.Authorizer.Stage == "" {
		errs = append(errs, errors.New("authorizer.stage is required"))
	}
	if c.SessionStore.Addr == "" {
		errs = append(errs, errors.New("sessionStore.addr is required"))
	}
	if c.SessionStore.DB < 0 {
		errs = append(errs, fmt.Errorf("sessionStore.db must be non-negative, got %d", c.SessionStore.DB))
	}
	if c.SessionStore.LookupTimeout < 0 {
		errs = append(errs, errors.New("sessionStore.lookupTimeout must be non-negative"))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.samplingRate must be in [0, 1], got %v", c.Tracing.SamplingRate))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
