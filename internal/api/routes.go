package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kroma-labs/sentinel-service/httpserver"
)

// Route templates.
const (
	RouteHealth  = "/health"
	RouteReady   = "/ready"
	RoutePing    = "/api/v1/ping"
	RouteMetrics = "/metrics"
)

// NewRouter registers the service routes. Unknown paths answer 404 and
// known paths with the wrong method answer 405, both as {"error": ...}.
func NewRouter(opts Options) chi.Router {
	opts = opts.withDefaults()

	h := &handlers{
		registry: opts.Registry,
		region:   opts.Region,
		env:      opts.Env,
		now:      opts.Now,
	}

	r := chi.NewRouter()
	r.NotFound(httpserver.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(httpserver.MethodNotAllowedHandler().ServeHTTP)

	r.Method(http.MethodGet, RouteHealth, httpserver.Handle(opts.Logger, h.health))
	r.Method(http.MethodGet, RouteReady, httpserver.Handle(opts.Logger, h.ready))
	r.Method(http.MethodGet, RoutePing, httpserver.Handle(opts.Logger, h.ping))
	r.Method(http.MethodGet, RouteMetrics, httpserver.Handle(opts.Logger, h.metrics))

	return r
}

// RouteFunc resolves the chi route template of a request without serving
// it. Requests that match no route, or match a path but not its method,
// resolve to "".
func RouteFunc(routes chi.Routes) httpserver.RouteFunc {
	return func(r *http.Request) string {
		rctx := chi.NewRouteContext()
		if !routes.Match(rctx, r.Method, r.URL.Path) {
			return ""
		}
		return rctx.RoutePattern()
	}
}
