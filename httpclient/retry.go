package httpclient

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig holds the retry behavior configuration.
//
// The client retries with a fixed delay between attempts. Retries apply only
// to transient failures: NETWORK_ERROR and TIMEOUT_ERROR. HTTP errors,
// validation errors, CSRF errors and caller-initiated aborts are never
// retried.
//
// Key concepts:
//   - MaxRetries bounds the number of ADDITIONAL attempts: MaxRetries = 3
//     means at most 4 transport calls in total.
//   - Every attempt gets its own fresh deadline; the delay between attempts
//     is not counted against it.
//   - Attempts are strictly sequential. There is never more than one
//     in-flight transport call per logical request.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRetryConfig(httpclient.RetryConfig{
//	        Enabled:    true,
//	        MaxRetries: 5,
//	        RetryDelay: 250 * time.Millisecond,
//	    }),
//	)
type RetryConfig struct {
	// Enabled turns the retry loop on. When false exactly one attempt is
	// made regardless of MaxRetries.
	Enabled bool

	// MaxRetries is the maximum number of additional attempts after the
	// first one.
	// Default: 3
	MaxRetries uint

	// RetryDelay is the fixed wait between attempts.
	// Default: 1s
	RetryDelay time.Duration
}

// Default values for RetryConfig.
const (
	// DefaultMaxRetries is the default number of additional attempts.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default fixed wait between attempts.
	DefaultRetryDelay = 1 * time.Second
)

// DefaultRetryConfig returns the standard retry configuration:
// up to 3 retries with a fixed 1s delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:    true,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// NoRetryConfig returns a configuration that disables retries entirely.
//
// Use this when:
//   - The operation is not idempotent
//   - Retries are handled at a higher level
//   - Testing without retry interference
func NoRetryConfig() RetryConfig {
	return RetryConfig{}
}

// maxAttempts returns the total attempt budget for this configuration.
func (c RetryConfig) maxAttempts() int {
	if !c.Enabled {
		return 1
	}
	return int(c.MaxRetries) + 1
}

// delayStrategy returns the wait strategy for the retry loop. A custom
// strategy wins when one is configured; otherwise a constant backoff with
// the configured fixed delay is used.
//
// A strategy returning backoff.Stop ends the loop early even when attempts
// remain.
func (cfg *internalConfig) delayStrategy() backoff.BackOff {
	if cfg.RetryBackOff != nil {
		cfg.RetryBackOff.Reset()
		return cfg.RetryBackOff
	}
	return backoff.NewConstantBackOff(cfg.Retry.RetryDelay)
}
