package httpclient

import "errors"

// ErrRateLimited is the cause carried by the NETWORK_ERROR returned when a
// fail-fast rate limiter rejects a request.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig configures client-side rate limiting. The limiter runs
// ahead of every attempt, so retried attempts consume tokens too.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	// Zero disables rate limiting.
	RequestsPerSecond float64

	// Burst is the number of requests allowed in a brief spike above the
	// sustained rate. Defaults to 1 when unset.
	Burst int

	// WaitOnLimit determines behavior at the limit. If true, attempts wait
	// for a token (respecting the caller's context). If false, attempts
	// fail immediately with a NETWORK_ERROR wrapping ErrRateLimited.
	WaitOnLimit bool
}

// DefaultRateLimitConfig returns 100 requests per second with a burst of 10,
// waiting at the limit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// burstOrDefault returns the burst size, at least 1.
func (c RateLimitConfig) burstOrDefault() int {
	if c.Burst <= 0 {
		return 1
	}
	return c.Burst
}
