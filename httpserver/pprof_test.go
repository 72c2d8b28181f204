package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kroma-labs/sentinel-service/httpserver"
	"github.com/stretchr/testify/assert"
)

func TestPprofHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        httpserver.PprofConfig
		user, pass string
		wantStatus int
	}{
		{
			name:       "given no auth configured, then index served",
			cfg:        httpserver.PprofConfig{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "given auth configured and no credentials, then unauthorized",
			cfg:        httpserver.PprofConfig{Username: "admin", Password: "secret"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "given wrong password, then unauthorized",
			cfg:        httpserver.PprofConfig{Username: "admin", Password: "secret"},
			user:       "admin",
			pass:       "nope",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "given valid credentials, then index served",
			cfg:        httpserver.PprofConfig{Username: "admin", Password: "secret"},
			user:       "admin",
			pass:       "secret",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			httpserver.PprofHandler(tt.cfg).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="pprof"`, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
