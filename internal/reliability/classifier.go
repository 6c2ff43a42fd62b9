// Package reliability classifies failures from upstream APIs and computes
// retry backoff. It has no knowledge of any particular provider.
package reliability

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"
)

// IsRetryableStatus reports whether an HTTP status code indicates a
// transient condition worth retrying.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsRetryableError reports whether err looks transient: timeouts and
// temporary network failures qualify, cancellation never does.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Backoff returns the delay before retry attempt (zero-based), doubling from
// base and clamped at cap.
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if cap > 0 && (d > cap || d <= 0) {
		d = cap
	}
	return d
}
