package httpserver

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
)

// PprofConfig configures the debug endpoints.
type PprofConfig struct {
	// Prefix is the URL prefix for pprof endpoints.
	// Default: "/debug/pprof"
	Prefix string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string
}

// PprofHandler returns an http.Handler that serves pprof endpoints.
//
// Available endpoints:
//   - /debug/pprof/           - Index page and named profiles (heap, goroutine, allocs, ...)
//   - /debug/pprof/cmdline    - Command line
//   - /debug/pprof/profile    - CPU profile
//   - /debug/pprof/symbol     - Symbol lookup
//   - /debug/pprof/trace      - Execution trace
//
// Serve it on a separate listener, never next to the public routes:
//
//	debug := httpserver.New(
//	    httpserver.WithAddr("127.0.0.1:6060"),
//	    httpserver.WithHandler(httpserver.PprofHandler(httpserver.PprofConfig{
//	        Username: "admin",
//	        Password: "secret",
//	    })),
//	)
func PprofHandler(cfg PprofConfig) http.Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "/debug/pprof"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Prefix+"/", pprof.Index)
	mux.HandleFunc(cfg.Prefix+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(cfg.Prefix+"/profile", pprof.Profile)
	mux.HandleFunc(cfg.Prefix+"/symbol", pprof.Symbol)
	mux.HandleFunc(cfg.Prefix+"/trace", pprof.Trace)

	if cfg.Username != "" && cfg.Password != "" {
		return pprofBasicAuth(cfg.Username, cfg.Password, mux)
	}
	return mux
}

// pprofBasicAuth wraps handler with HTTP Basic Authentication.
func pprofBasicAuth(username, password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		usernameMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

		if !ok || !usernameMatch || !passwordMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
