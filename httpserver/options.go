package httpserver

import (
	"net/http"
	"time"

	"github.com/kroma-labs/sentinel-service/logging"
)

// Option configures the server.
type Option func(*Config)

// WithConfig applies all settings from a Config struct.
//
// Use DefaultConfig as a starting point, then override specific fields:
//
//	cfg := httpserver.DefaultConfig()
//	cfg.Addr = ":9090"
//
//	server := httpserver.New(
//	    httpserver.WithConfig(cfg),
//	    httpserver.WithHandler(router),
//	)
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithAddr sets the listen address, e.g. ":8080".
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithHandler sets the HTTP handler for the server.
//
// This is required. The handler is wrapped with any configured middleware
// in the order they are specified.
func WithHandler(h http.Handler) Option {
	return func(c *Config) {
		c.Handler = h
	}
}

// WithLogger sets the logger for server lifecycle events only.
//
// Request logging is done by the Instrument middleware, which takes its own
// logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithShutdownTimeout sets the graceful shutdown grace period.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithMiddleware adds middleware to wrap the handler.
//
// Middleware is applied in order (first middleware wraps outermost).
//
// Example:
//
//	server := httpserver.New(
//	    httpserver.WithHandler(router),
//	    httpserver.WithMiddleware(
//	        httpserver.SecurityHeaders(),
//	        httpserver.RequestID(),
//	    ),
//	)
func WithMiddleware(ms ...Middleware) Option {
	return func(c *Config) {
		c.Middleware = append(c.Middleware, ms...)
	}
}
