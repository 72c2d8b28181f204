// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/kroma-labs/sentinel-service/logging"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
	Pprof     PprofConfig
}

type ServerConfig struct {
	Port            int           `env:"PORT"             envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"sentinel-service"`
	Region      string `env:"AWS_REGION"`
	AppEnv      string `env:"APP_ENV"`
	NodeEnv     string `env:"NODE_ENV"`
}

// Environment is APP_ENV, falling back to NODE_ENV.
func (a AppConfig) Environment() string {
	if a.AppEnv != "" {
		return a.AppEnv
	}
	return a.NodeEnv
}

type MetricsConfig struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"myapp"`
}

// RateLimitConfig selects the rate limit backend and how clients are
// identified. The policy itself (100 requests per minute per client) is
// fixed.
type RateLimitConfig struct {
	RedisURL string `env:"RATE_LIMIT_REDIS_URL"`

	// TrustedProxies lists the CIDRs or addresses of load balancers whose
	// X-Forwarded-For is honoured. Empty keys clients on the socket address.
	TrustedProxies []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`
}

// TrustedProxyPrefixes parses TrustedProxies.
func (r RateLimitConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes, err := httpserver.ParseTrustedProxies(r.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrustedProxy, err)
	}
	return prefixes, nil
}

// TracingConfig controls span export. With tracing enabled and no
// endpoint, spans are sampled for log correlation but never exported.
type TracingConfig struct {
	Enabled      bool   `env:"TRACING_ENABLED"             envDefault:"false"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

type PprofConfig struct {
	Addr     string `env:"PPROF_ADDR"`
	Username string `env:"PPROF_USERNAME"`
	Password string `env:"PPROF_PASSWORD"`
}

// Validation errors.
var (
	ErrInvalidPort            = errors.New("config: PORT must be between 1 and 65535")
	ErrInvalidShutdownTimeout = errors.New("config: SHUTDOWN_TIMEOUT must be positive")
	ErrInvalidNamespace       = errors.New("config: METRICS_NAMESPACE must match [a-zA-Z_][a-zA-Z0-9_]*")
	ErrPartialPprofAuth       = errors.New("config: PPROF_USERNAME and PPROF_PASSWORD must be set together")
	ErrInvalidTrustedProxy    = errors.New("config: RATE_LIMIT_TRUSTED_PROXIES must hold CIDRs or IP addresses")
)

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return Parse(nil)
}

// Parse reads the configuration from environ, or from the process
// environment when environ is nil, and validates it.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrInvalidPort, c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, ErrInvalidShutdownTimeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("config: LOG_LEVEL: %w", err))
	}
	if !validNamespace(c.Metrics.Namespace) {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrInvalidNamespace, c.Metrics.Namespace))
	}
	if (c.Pprof.Username == "") != (c.Pprof.Password == "") {
		errs = append(errs, ErrPartialPprofAuth)
	}
	if _, err := c.RateLimit.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr is the main listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func validNamespace(ns string) bool {
	if ns == "" {
		return false
	}
	for i, r := range ns {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
