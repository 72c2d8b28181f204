package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/kroma-labs/sentinel-service/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingRoute(r *http.Request) string {
	if r.URL.Path == "/api/v1/ping" {
		return "/api/v1/ping"
	}
	return ""
}

func newHTTPMetrics(t *testing.T) (*metrics.Registry, *metrics.HTTPMetrics) {
	t.Helper()

	reg := metrics.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg, "myapp")
	require.NoError(t, err)
	return reg, m
}

func render(t *testing.T, reg *metrics.Registry) string {
	t.Helper()

	out, err := reg.Render()
	require.NoError(t, err)
	return out
}

func TestInstrument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		status      int
		wantLevel   string
		wantRoute   string
		wantCounter string
	}{
		{
			name:        "given ok response, then info record and counted",
			path:        "/api/v1/ping",
			status:      http.StatusOK,
			wantLevel:   "info",
			wantRoute:   "/api/v1/ping",
			wantCounter: `myapp_http_requests_total{method="GET",route="/api/v1/ping",status="200"} 1`,
		},
		{
			name:        "given client error, then warn record",
			path:        "/api/v1/ping",
			status:      http.StatusTooManyRequests,
			wantLevel:   "warn",
			wantRoute:   "/api/v1/ping",
			wantCounter: `myapp_http_requests_total{method="GET",route="/api/v1/ping",status="429"} 1`,
		},
		{
			name:        "given server error, then error record",
			path:        "/api/v1/ping",
			status:      http.StatusInternalServerError,
			wantLevel:   "error",
			wantRoute:   "/api/v1/ping",
			wantCounter: `myapp_http_requests_total{method="GET",route="/api/v1/ping",status="500"} 1`,
		},
		{
			name:        "given unknown path, then unmatched route label",
			path:        "/nope/123",
			status:      http.StatusNotFound,
			wantLevel:   "warn",
			wantRoute:   httpserver.UnmatchedRoute,
			wantCounter: `myapp_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg, m := newHTTPMetrics(t)
			logger, buf := newBufferLogger(t)

			handler := httpserver.Chain(
				httpserver.RequestID(),
				httpserver.Instrument(httpserver.InstrumentConfig{
					Metrics:   m,
					Logger:    logger,
					RouteFunc: pingRoute,
				}),
			)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := render(t, reg)
			assert.Contains(t, out, tt.wantCounter)
			assert.Contains(t, out,
				`myapp_http_request_duration_seconds_count{method="GET",route="`+tt.wantRoute+`"} 1`)

			records := recordsWithEvent(t, buf, "http_request")
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantLevel, records[0]["level"])

			meta := metaOf(t, records[0])
			assert.Equal(t, "GET", meta["method"])
			assert.Equal(t, tt.path, meta["path"])
			assert.Equal(t, tt.wantRoute, meta["route"])
			assert.InDelta(t, tt.status, meta["status"], 0)
			assert.Equal(t, httpserver.UnknownRegion, meta["region"])
			assert.Equal(t, rec.Header().Get(httpserver.RequestIDHeader), meta["request_id"])
			assert.InDelta(t, 4, meta["bytes"], 0)
			assert.Contains(t, meta, "duration_ms")
			assert.NotContains(t, meta, "trace_id")
		})
	}
}

func TestInstrument_Region(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger(t)
	handler := httpserver.Instrument(httpserver.InstrumentConfig{
		Logger: logger,
		Region: "eu-west-1",
	})(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	records := recordsWithEvent(t, buf, "http_request")
	require.Len(t, records, 1)
	assert.Equal(t, "eu-west-1", metaOf(t, records[0])["region"])
}

func TestInstrument_PanicRecoveredInside(t *testing.T) {
	t.Parallel()

	reg, m := newHTTPMetrics(t)
	logger, buf := newBufferLogger(t)

	handler := httpserver.Chain(
		httpserver.Instrument(httpserver.InstrumentConfig{Metrics: m, Logger: logger, RouteFunc: pingRoute}),
		httpserver.Recovery(logger),
	)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, render(t, reg),
		`myapp_http_requests_total{method="GET",route="/api/v1/ping",status="500"} 1`)
	assert.Len(t, recordsWithEvent(t, buf, "http_request"), 1)
	assert.Len(t, recordsWithEvent(t, buf, "unhandled_error"), 1)
}

func TestInstrument_PanicEscapes(t *testing.T) {
	t.Parallel()

	reg, m := newHTTPMetrics(t)
	handler := httpserver.Instrument(httpserver.InstrumentConfig{Metrics: m, RouteFunc: pingRoute})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}),
	)

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	})
	assert.Contains(t, render(t, reg),
		`myapp_http_request_duration_seconds_count{method="GET",route="/api/v1/ping"} 1`)
}

func TestObservation_FinishIsOnce(t *testing.T) {
	t.Parallel()

	reg, m := newHTTPMetrics(t)
	logger, buf := newBufferLogger(t)

	obs := httpserver.StartObservation(httpserver.InstrumentConfig{
		Metrics:   m,
		Logger:    logger,
		RouteFunc: pingRoute,
	}, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	// Response finished, then the connection closed: two completion signals.
	obs.Finish(http.StatusOK, 2)
	obs.Finish(http.StatusOK, 2)
	obs.Finish(http.StatusInternalServerError, 0)

	out := render(t, reg)
	assert.Contains(t, out, `myapp_http_requests_total{method="GET",route="/api/v1/ping",status="200"} 1`)
	assert.NotContains(t, out, `status="500"`)
	assert.Contains(t, out, `myapp_http_request_duration_seconds_count{method="GET",route="/api/v1/ping"} 1`)
	records := recordsWithEvent(t, buf, "http_request")
	require.Len(t, records, 1)
	assert.InDelta(t, 2, metaOf(t, records[0])["bytes"], 0)
}

func TestInstrument_RedactsSensitiveMeta(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferLogger(t)
	handler := httpserver.Instrument(httpserver.InstrumentConfig{
		Logger: logger.With(map[string]any{"patient_id": "p-42"}),
	})(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotContains(t, buf.String(), "p-42")
}
