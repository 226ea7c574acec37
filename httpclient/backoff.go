package httpclient

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// The strategies below plug into WithRetryBackOff to replace the default
// fixed delay between attempts. They implement backoff.BackOff, so any
// strategy from the cenkalti/backoff ecosystem works too.

// Default values for the alternative wait strategies.
var (
	// DefaultLinearIncrement is the per-retry increment for LinearBackOff.
	DefaultLinearIncrement = 500 * time.Millisecond

	// DefaultLinearMaxInterval caps LinearBackOff growth.
	DefaultLinearMaxInterval = 10 * time.Second

	// DefaultJitterFactor randomizes jittered waits by ±50%.
	DefaultJitterFactor = 0.5
)

// LinearBackOff grows the wait linearly: increment, 2×increment,
// 3×increment, capped at MaxInterval.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRetryBackOff(httpclient.NewLinearBackOff()),
//	)
type LinearBackOff struct {
	// Increment is the step added per retry.
	Increment time.Duration

	// MaxInterval caps the wait.
	MaxInterval time.Duration

	mu      sync.Mutex
	retries int
}

// NewLinearBackOff creates a LinearBackOff with default settings
// (500ms increments capped at 10s).
func NewLinearBackOff() *LinearBackOff {
	return &LinearBackOff{
		Increment:   DefaultLinearIncrement,
		MaxInterval: DefaultLinearMaxInterval,
	}
}

// Reset implements backoff.BackOff.
func (b *LinearBackOff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retries = 0
}

// NextBackOff implements backoff.BackOff.
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retries++
	interval := time.Duration(b.retries) * b.Increment
	if b.MaxInterval > 0 && interval > b.MaxInterval {
		return b.MaxInterval
	}
	return interval
}

// ConstantBackOffWithJitter waits a fixed interval randomized by a jitter
// factor, spreading retries from many clients that failed at the same
// moment.
type ConstantBackOffWithJitter struct {
	// Interval is the base wait.
	Interval time.Duration

	// JitterFactor (0.0-1.0) randomizes the wait by ±factor.
	JitterFactor float64
}

// NewConstantBackOffWithJitter creates a jittered constant backoff around
// the given interval with the default ±50% jitter.
func NewConstantBackOffWithJitter(interval time.Duration) *ConstantBackOffWithJitter {
	return &ConstantBackOffWithJitter{
		Interval:     interval,
		JitterFactor: DefaultJitterFactor,
	}
}

// Reset implements backoff.BackOff.
func (b *ConstantBackOffWithJitter) Reset() {}

// NextBackOff implements backoff.BackOff.
func (b *ConstantBackOffWithJitter) NextBackOff() time.Duration {
	return applyJitter(b.Interval, b.JitterFactor)
}

var _ backoff.BackOff = (*LinearBackOff)(nil)
var _ backoff.BackOff = (*ConstantBackOffWithJitter)(nil)

// applyJitter randomizes interval by ±jitterFactor. A factor outside (0, 1]
// leaves the interval unchanged.
func applyJitter(interval time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 || jitterFactor > 1 || interval <= 0 {
		return interval
	}
	delta := time.Duration(float64(interval) * jitterFactor)
	return randomBetween(interval-delta, interval+delta)
}

// randomBetween returns a random duration in [minDur, maxDur].
func randomBetween(minDur, maxDur time.Duration) time.Duration {
	if maxDur <= minDur {
		return minDur
	}
	return minDur + time.Duration(rand.Int63n(int64(maxDur-minDur)+1))
}
