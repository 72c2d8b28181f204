package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kroma-labs/sentinel-service/logging"
	"github.com/kroma-labs/sentinel-service/metrics"
	"go.opentelemetry.io/otel/trace"
)

// UnmatchedRoute is the route label for requests no route matched.
const UnmatchedRoute = "unmatched"

// UnknownRegion is logged when no region is configured.
const UnknownRegion = "unknown"

// RouteFunc resolves the route template ("/api/v1/ping", "/users/{id}") of a
// request before it is routed. It returns "" when no route matches.
type RouteFunc func(r *http.Request) string

// InstrumentConfig configures the Instrument middleware.
type InstrumentConfig struct {
	// Metrics receives the request counter and duration histogram.
	// If nil, no metrics are recorded.
	Metrics *metrics.HTTPMetrics

	// Logger receives one http_request record per request.
	// If nil, nothing is logged.
	Logger *logging.Logger

	// Region is added to every request log. Default: "unknown".
	Region string

	// RouteFunc resolves the route label. Raw paths are never used as labels
	// so cardinality stays bounded. If nil, every request is labelled
	// UnmatchedRoute.
	RouteFunc RouteFunc
}

func (c InstrumentConfig) withDefaults() InstrumentConfig {
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
	if c.Region == "" {
		c.Region = UnknownRegion
	}
	if c.RouteFunc == nil {
		c.RouteFunc = func(*http.Request) string { return "" }
	}
	return c
}

// Instrument returns middleware that records request metrics and emits one
// structured request log when the request finishes.
//
// Completion is recorded exactly once, after the handler returns, including
// when the handler panics. Log level follows the status: info below 400,
// warn for 4xx, error for 5xx.
//
// Example:
//
//	handler := httpserver.Instrument(httpserver.InstrumentConfig{
//	    Metrics:   httpMetrics,
//	    Logger:    logger,
//	    Region:    "us-east-1",
//	    RouteFunc: api.RouteFunc(router),
//	})(router)
func Instrument(cfg InstrumentConfig) Middleware {
	cfg = cfg.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			obs := startObservation(&cfg, r)
			rw := wrapResponseWriter(w)

			defer func() { obs.finish(rw.Status(), rw.BytesWritten()) }()

			next.ServeHTTP(rw, r)
		})
	}
}

// requestObservation is the per-request state between start and finish.
type requestObservation struct {
	cfg *InstrumentConfig

	ctx    context.Context
	method string
	path   string
	route  string
	start  time.Time
	timer  *metrics.Timer

	once sync.Once
}

func startObservation(cfg *InstrumentConfig, r *http.Request) *requestObservation {
	route := cfg.RouteFunc(r)
	if route == "" {
		route = UnmatchedRoute
	}

	obs := &requestObservation{
		cfg:    cfg,
		ctx:    r.Context(),
		method: r.Method,
		path:   r.URL.Path,
		route:  route,
		start:  time.Now(),
	}
	if cfg.Metrics != nil {
		obs.timer = cfg.Metrics.StartRequest(obs.method, obs.route)
	}
	return obs
}

// finish records the request outcome and the response body size in bytes.
// Calls after the first are no-ops.
func (o *requestObservation) finish(status, bytes int) {
	o.once.Do(func() {
		elapsed := time.Since(o.start)
		if o.timer != nil {
			if d, ok := o.timer.Stop(); ok {
				elapsed = d
			}
		}
		if o.cfg.Metrics != nil {
			o.cfg.Metrics.CountRequest(o.method, o.route, status)
		}

		meta := logging.Meta{
			"method":      o.method,
			"path":        o.path,
			"route":       o.route,
			"status":      status,
			"bytes":       bytes,
			"region":      o.cfg.Region,
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
		}
		if id := RequestIDFromContext(o.ctx); id != "" {
			meta["request_id"] = id
		}
		if sc := trace.SpanContextFromContext(o.ctx); sc.HasTraceID() {
			meta["trace_id"] = sc.TraceID().String()
		}

		o.cfg.Logger.Log(statusLevel(status), "http_request", meta)
	})
}

func statusLevel(status int) logging.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logging.ErrorLevel
	case status >= http.StatusBadRequest:
		return logging.WarnLevel
	default:
		return logging.InfoLevel
	}
}
