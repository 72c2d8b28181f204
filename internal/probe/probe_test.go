package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kroma-labs/sentinel-service/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() probe.Config {
	return probe.Config{
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  2 * time.Second,
		AttemptTimeout:  500 * time.Millisecond,
	}
}

// sequenceServer answers the given statuses in order, repeating the last.
func sequenceServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statuses   []int
		wantStatus int
		wantErr    bool
		wantCalls  int32
	}{
		{
			name:       "given healthy endpoint, then succeeds on first try",
			statuses:   []int{http.StatusOK},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "given transient 503, then retries until 200",
			statuses:   []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			wantStatus: http.StatusOK,
			wantCalls:  3,
		},
		{
			name:      "given persistent 500, then gives up after max tries",
			statuses:  []int{http.StatusInternalServerError},
			wantErr:   true,
			wantCalls: 3,
		},
		{
			name:      "given 404, then fails without retry",
			statuses:  []int{http.StatusNotFound},
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, calls := sequenceServer(t, tt.statuses...)

			status, err := probe.Check(context.Background(), srv.URL+"/health", fastConfig())
			if tt.wantErr {
				require.Error(t, err)
				var statusErr *probe.StatusError
				assert.True(t, errors.As(err, &statusErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, status)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestCheck_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var retries atomic.Int32
	cfg := fastConfig()
	cfg.Notify = func(error, time.Duration) { retries.Add(1) }

	_, err := probe.Check(context.Background(), url, cfg)
	require.Error(t, err)
	assert.Equal(t, int32(2), retries.Load())
}

func TestCheck_CancelledContext(t *testing.T) {
	t.Parallel()

	srv, _ := sequenceServer(t, http.StatusServiceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := probe.Check(ctx, srv.URL, fastConfig())
	require.Error(t, err)
}

func TestDefaultClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{name: "given 200, then no retry", resp: &http.Response{StatusCode: http.StatusOK}, want: false},
		{name: "given 429, then retry", resp: &http.Response{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "given 502, then retry", resp: &http.Response{StatusCode: http.StatusBadGateway}, want: true},
		{name: "given 400, then no retry", resp: &http.Response{StatusCode: http.StatusBadRequest}, want: false},
		{name: "given connection error, then retry", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "given cancelled context, then no retry", err: context.Canceled, want: false},
		{name: "given certificate error, then no retry", err: errors.New("x509: certificate signed by unknown authority"), want: false},
		{name: "given no response and no error, then no retry", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, probe.DefaultClassifier(tt.resp, tt.err))
		})
	}
}
