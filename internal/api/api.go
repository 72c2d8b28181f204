// Package api assembles the service's HTTP surface: routes, handlers and
// the middleware pipeline around them.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/kroma-labs/sentinel-service/logging"
	"github.com/kroma-labs/sentinel-service/metrics"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoRegistry is returned by Pipeline when Options.Registry is nil.
var ErrNoRegistry = errors.New("api: pipeline needs the registry shared with the router")

// Options wires the HTTP surface to the process-wide components.
type Options struct {
	Logger   *logging.Logger
	Registry *metrics.Registry

	// MetricsNamespace prefixes the request metrics. Default: "myapp".
	MetricsNamespace string

	ServiceName string
	Region      string
	Env         string

	// RateLimitStore backs the /api/ rate limit. Default: in-memory.
	RateLimitStore httpserver.RateLimitStore

	// TrustedProxies are the peers whose X-Forwarded-For is honoured when
	// keying the rate limit. Empty keys on the connection address only.
	TrustedProxies []netip.Prefix

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Now is the clock used for response timestamps. Default: time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Registry == nil {
		o.Registry = metrics.NewRegistry()
	}
	if o.MetricsNamespace == "" {
		o.MetricsNamespace = "myapp"
	}
	if o.RateLimitStore == nil {
		o.RateLimitStore = httpserver.NewMemoryStore(httpserver.DefaultRateLimit, httpserver.DefaultRateLimitWindow)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewHandler builds the router and wraps it in the full pipeline.
func NewHandler(opts Options) (http.Handler, error) {
	opts = opts.withDefaults()
	return Pipeline(opts, NewRouter(opts))
}

// Pipeline wraps router, outermost first, in:
//
//	SecurityHeaders -> RequestID -> Tracing -> Instrument -> Recovery ->
//	BodyLimit -> RateLimit (/api/ only) -> router
//
// It registers the request metrics on opts.Registry, so it fails if called
// twice with the same registry. opts.Registry must be the one given to
// NewRouter so /metrics renders what the pipeline records; a nil Registry
// returns ErrNoRegistry.
func Pipeline(opts Options, router chi.Router) (http.Handler, error) {
	if opts.Registry == nil {
		return nil, ErrNoRegistry
	}
	opts = opts.withDefaults()

	httpMetrics, err := metrics.NewHTTPMetrics(opts.Registry, opts.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("api: request metrics: %w", err)
	}

	routeFunc := RouteFunc(router)

	return httpserver.Chain(
		httpserver.SecurityHeaders(),
		httpserver.RequestID(),
		httpserver.Tracing(httpserver.TracingConfig{
			TracerProvider: opts.TracerProvider,
			ServiceName:    opts.ServiceName,
			RouteFunc:      routeFunc,
		}),
		httpserver.Instrument(httpserver.InstrumentConfig{
			Metrics:   httpMetrics,
			Logger:    opts.Logger,
			Region:    opts.Region,
			RouteFunc: routeFunc,
		}),
		httpserver.Recovery(opts.Logger),
		httpserver.BodyLimit(httpserver.DefaultBodyLimit),
		httpserver.ForPathPrefix("/api/", httpserver.RateLimit(httpserver.RateLimitConfig{
			Store:          opts.RateLimitStore,
			Logger:         opts.Logger,
			TrustedProxies: opts.TrustedProxies,
		})),
	)(router), nil
}
