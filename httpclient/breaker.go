package httpclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisStore creates a SharedDataStore backed by Redis for distributed
// circuit breaking, so multiple instances share one breaker state.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	store := httpclient.NewRedisStore(rdb)
//	client := httpclient.New(
//	    httpclient.WithBreakerConfig(httpclient.DistributedBreakerConfig(store)),
//	)
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// CircuitBreaker is the interface the breaker transport executes through.
// It matches the gobreaker signature.
type CircuitBreaker interface {
	Execute(req func() (any, error)) (any, error)
}

// BreakerClassifier decides whether a transport outcome counts as a failure
// toward tripping the circuit. It sees the raw (resp, err) pair, before the
// engine's error classification.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig holds the circuit breaker configuration.
//
// States:
//   - Closed: normal, requests flow
//   - Open: failing, requests rejected immediately
//   - Half-open: probing, limited requests test recovery
//
// While the circuit is open, attempts fail with a NETWORK_ERROR wrapping
// gobreaker.ErrOpenState, which keeps them inside the client's normal
// retry-eligibility rules.
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	// Zero allows one.
	MaxRequests uint32

	// Interval is the cyclic period over which closed-state counts reset.
	// Zero means counts are never reset while closed.
	Interval time.Duration

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// failure ratio can trip the circuit.
	// Default: 20
	FailureThreshold uint32

	// FailureRatio (0.0-1.0) trips the circuit once reached.
	// Default: 0.5
	FailureRatio float64

	// ConsecutiveFailures trips the circuit immediately when reached.
	// Zero disables the rule.
	ConsecutiveFailures uint32

	// Store enables distributed breaking when non-nil; in-memory otherwise.
	Store gobreaker.SharedDataStore

	// Classifier decides which outcomes count as failures.
	// Default: DefaultBreakerClassifier
	Classifier BreakerClassifier

	// OnStateChange is invoked on circuit state transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a safe local (in-memory) configuration:
// 10s interval and open timeout, trip at 50% failures over at least 20
// requests or 5 consecutive failures.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig returns a configuration for a distributed
// circuit breaker backed by a shared store: if one instance trips the
// breaker, all instances stop sending.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// DefaultBreakerClassifier counts 5xx responses and connectivity failures
// as breaker failures. Caller cancellation and deadline expiry do not count:
// they say something about this caller, not about the downstream service.
// 429s are also excluded; the retry delay handles those better than an open
// circuit.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	return resp != nil && resp.StatusCode >= 500
}

// errBreakerSyntheticFailure signals the breaker that a request failed
// (e.g. a 500 status) even though RoundTrip returned no error. It is
// unwrapped before returning to the engine.
var errBreakerSyntheticFailure = errors.New("breaker synthetic failure")

// circuitBreakerTransport wraps a RoundTripper in a circuit breaker.
type circuitBreakerTransport struct {
	breaker    CircuitBreaker
	next       http.RoundTripper
	classifier BreakerClassifier
	cfg        *internalConfig
	name       string
}

// newCircuitBreakerTransport wraps next with a circuit breaker when one is
// configured, or returns next unchanged.
func newCircuitBreakerTransport(next http.RoundTripper, cfg *internalConfig) http.RoundTripper {
	if cfg.BreakerConfig == nil {
		return next
	}

	bc := cfg.BreakerConfig
	name := cfg.ServiceName
	if name == "" {
		name = "palisade-http-client"
	}

	classifier := bc.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if bc.FailureThreshold > 0 && counts.Requests < bc.FailureThreshold {
				return false
			}
			if bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures {
				return true
			}
			if bc.FailureRatio > 0 && counts.TotalFailures > 0 {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				if ratio >= bc.FailureRatio {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if cfg.Metrics != nil {
				cfg.Metrics.recordBreakerState(context.Background(), name, int64(to))
			}
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	var cb CircuitBreaker
	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[any](bc.Store, settings)
		if err != nil {
			// Degrade to a local breaker rather than running unprotected.
			cb = gobreaker.NewCircuitBreaker[any](settings)
		} else {
			cb = dcb
		}
	} else {
		cb = gobreaker.NewCircuitBreaker[any](settings)
	}

	return &circuitBreakerTransport{
		breaker:    cb,
		next:       next,
		classifier: classifier,
		cfg:        cfg,
		name:       name,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	res, err := t.breaker.Execute(func() (any, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose

		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errBreakerSyntheticFailure
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "rejected")
		} else {
			t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "failure")
		}

		// A synthetic failure carries a real response the engine still
		// needs to classify by status.
		if errors.Is(err, errBreakerSyntheticFailure) {
			if resp, ok := res.(*http.Response); ok {
				return resp, nil
			}
		}

		return nil, err
	}

	t.cfg.Metrics.recordBreakerRequest(ctx, t.name, "success")

	if resp, ok := res.(*http.Response); ok {
		return resp, nil
	}

	return nil, errors.New("circuit breaker returned unknown response type")
}
