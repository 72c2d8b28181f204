package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Label names used by the HTTP request metrics.
const (
	LabelMethod = "method"
	LabelRoute  = "route"
	LabelStatus = "status"
)

// DefaultDurationBuckets are the request duration histogram boundaries, in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5}

// HTTPMetrics is the pair of request metrics recorded for every served request:
//
//   - <namespace>_http_requests_total{method,route,status}
//   - <namespace>_http_request_duration_seconds{method,route}
type HTTPMetrics struct {
	Requests *Counter
	Duration *Histogram
}

// NewHTTPMetrics registers the request metrics on reg. An empty namespace
// leaves the names unprefixed.
func NewHTTPMetrics(reg *Registry, namespace string) (*HTTPMetrics, error) {
	requests, err := reg.RegisterCounter(
		prometheus.BuildFQName(namespace, "http", "requests_total"),
		"Total HTTP requests",
		LabelMethod, LabelRoute, LabelStatus,
	)
	if err != nil {
		return nil, err
	}

	duration, err := reg.RegisterHistogram(
		prometheus.BuildFQName(namespace, "http", "request_duration_seconds"),
		"HTTP request duration in seconds",
		DefaultDurationBuckets,
		LabelMethod, LabelRoute,
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{Requests: requests, Duration: duration}, nil
}

// StartRequest starts the duration timer for a request.
func (m *HTTPMetrics) StartRequest(method, route string) *Timer {
	return m.Duration.StartTimer(method, route)
}

// CountRequest increments the request counter for a completed request.
func (m *HTTPMetrics) CountRequest(method, route string, status int) {
	m.Requests.Inc(method, route, strconv.Itoa(status))
}

// ProcessPrefix returns the prefix under which process metrics are registered
// for namespace.
func ProcessPrefix(namespace string) string {
	if namespace == "" {
		return "runtime_"
	}
	return namespace + "_runtime_"
}
