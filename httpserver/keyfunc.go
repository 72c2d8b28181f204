package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// KeyFunc extracts a rate limiting key from a request.
//
// Requests with the same key share the same window.
//
// Per-IP rate limit (each client has its own window):
//
//	httpserver.RateLimit(httpserver.RateLimitConfig{
//	    KeyFunc: httpserver.KeyFuncByIP(),
//	})
//
// Per-tenant rate limit:
//
//	httpserver.RateLimit(httpserver.RateLimitConfig{
//	    KeyFunc: httpserver.KeyFuncByHeader("X-Tenant-ID"),
//	})
type KeyFunc func(r *http.Request) string

// KeyFuncByIP returns a KeyFunc keyed on the host part of RemoteAddr.
// Forwarding headers are ignored, since any client can set them.
func KeyFuncByIP() KeyFunc {
	return func(r *http.Request) string {
		return ClientIP(r)
	}
}

// KeyFuncByTrustedProxy returns a KeyFunc that honours X-Forwarded-For only
// when the connection comes from one of trusted. The key is then the
// right-most hop that is not itself a trusted proxy. Requests from any
// other peer are keyed like KeyFuncByIP.
//
// Example:
//
//	trusted, _ := httpserver.ParseTrustedProxies([]string{"10.0.0.0/8"})
//	httpserver.RateLimit(httpserver.RateLimitConfig{
//	    KeyFunc: httpserver.KeyFuncByTrustedProxy(trusted),
//	})
func KeyFuncByTrustedProxy(trusted []netip.Prefix) KeyFunc {
	return func(r *http.Request) string {
		return ForwardedClientIP(r, trusted)
	}
}

// KeyFuncByHeader returns a KeyFunc that uses the value of header.
// Requests without the header share one window.
func KeyFuncByHeader(header string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(header)
	}
}

// ClientIP returns the host part of RemoteAddr. The port is dropped so every
// connection from one client shares a window.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ForwardedClientIP walks X-Forwarded-For from the right, skipping trusted
// proxies, and returns the first untrusted hop. When the peer is not
// trusted, or the header holds only trusted or malformed hops, it falls
// back to ClientIP.
func ForwardedClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := ClientIP(r)
	if !isTrusted(peer, trusted) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// Everything left of a malformed hop is unverifiable.
			return peer
		}
		if !isTrusted(addr.String(), trusted) {
			return addr.String()
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseTrustedProxies parses CIDR ranges or single addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("httpserver: trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("httpserver: trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
