package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Classifier reports whether a probe attempt should be retried.
type Classifier func(resp *http.Response, err error) bool

// DefaultClassifier retries transport failures, 429 and 5xx responses.
//
// It does not retry:
//   - context cancellation or deadline
//   - TLS certificate errors and unknown hosts
//   - any other 4xx response
func DefaultClassifier(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return !isPermanentError(err)
	}
	if resp == nil {
		return false
	}
	return isRetryableStatusCode(resp.StatusCode)
}

func isRetryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isPermanentError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	if errors.Is(err, syscall.EACCES) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{"x509:", "unsupported protocol scheme"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
