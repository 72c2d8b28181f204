package metrics_test

import (
	"strings"
	"testing"

	"github.com/kroma-labs/sentinel-service/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		namespace    string
		wantCounter  string
		wantDuration string
	}{
		{
			name:         "given namespace, then names are prefixed",
			namespace:    "myapp",
			wantCounter:  "myapp_http_requests_total",
			wantDuration: "myapp_http_request_duration_seconds",
		},
		{
			name:         "given empty namespace, then names are bare",
			namespace:    "",
			wantCounter:  "http_requests_total",
			wantDuration: "http_request_duration_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := metrics.NewRegistry()
			m, err := metrics.NewHTTPMetrics(reg, tt.namespace)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCounter, m.Requests.Name())
			assert.Equal(t, tt.wantDuration, m.Duration.Name())
		})
	}
}

func TestNewHTTPMetrics_Twice(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()
	_, err := metrics.NewHTTPMetrics(reg, "myapp")
	require.NoError(t, err)

	_, err = metrics.NewHTTPMetrics(reg, "myapp")
	var dupErr *metrics.DuplicateMetricError
	require.ErrorAs(t, err, &dupErr)
}

func TestHTTPMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg, "myapp")
	require.NoError(t, err)

	timer := m.StartRequest("GET", "/api/v1/ping")
	_, ok := timer.Stop()
	require.True(t, ok)
	m.CountRequest("GET", "/api/v1/ping", 200)

	expected := `
# HELP myapp_http_requests_total Total HTTP requests
# TYPE myapp_http_requests_total counter
myapp_http_requests_total{method="GET",route="/api/v1/ping",status="200"} 1
`
	require.NoError(t, testutil.GatherAndCompare(
		reg.Gatherer(), strings.NewReader(expected), "myapp_http_requests_total",
	))

	out, err := reg.Render()
	require.NoError(t, err)
	for _, le := range []string{"0.005", "0.01", "0.05", "0.1", "0.3", "0.5", "1", "2", "5", "+Inf"} {
		assert.Contains(t, out,
			`myapp_http_request_duration_seconds_bucket{method="GET",route="/api/v1/ping",le="`+le+`"}`)
	}
	assert.Contains(t, out, `myapp_http_request_duration_seconds_count{method="GET",route="/api/v1/ping"} 1`)
}

func TestProcessPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "myapp_runtime_", metrics.ProcessPrefix("myapp"))
	assert.Equal(t, "runtime_", metrics.ProcessPrefix(""))
}
