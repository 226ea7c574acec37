package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for client operations. A nil
// *metrics records nothing, so instrument registration failures degrade to
// silence rather than broken requests.
type metrics struct {
	// requestDuration measures the total logical-request duration in
	// seconds, retries and delays included.
	requestDuration metric.Float64Histogram

	// requestErrors counts failures by error kind.
	requestErrors metric.Int64Counter

	// timeouts counts attempts ended by the per-attempt deadline.
	timeouts metric.Int64Counter

	// csrfTokenMissing counts state-changing requests built without a
	// resolvable CSRF token. A rising value usually means sessions are
	// expiring or the cookie name is misconfigured.
	csrfTokenMissing metric.Int64Counter

	// retryAttempts counts retry transitions.
	retryAttempts metric.Int64Counter

	// retryExhausted counts logical requests that ran out of retry budget.
	// A high value indicates downstream service issues.
	retryExhausted metric.Int64Counter

	// breakerRequests counts breaker outcomes (success, failure, rejected).
	breakerRequests metric.Int64Counter

	// breakerState records circuit state transitions.
	breakerState metric.Int64Gauge
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of logical HTTP client requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"http.client.errors",
		metric.WithDescription("Count of client errors by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.timeouts, err = meter.Int64Counter(
		"http.client.timeouts",
		metric.WithDescription("Count of attempts ended by the per-attempt deadline"),
		metric.WithUnit("{timeout}"),
	)
	if err != nil {
		return nil, err
	}

	m.csrfTokenMissing, err = meter.Int64Counter(
		"http.client.csrf.token_missing",
		metric.WithDescription("Count of state-changing requests with no resolvable CSRF token"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryAttempts, err = meter.Int64Counter(
		"http.client.retry.attempts",
		metric.WithDescription("Count of retry attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryExhausted, err = meter.Int64Counter(
		"http.client.retry.exhausted",
		metric.WithDescription("Count of requests that exhausted all retries"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerRequests, err = meter.Int64Counter(
		"http.client.breaker.requests",
		metric.WithDescription("Count of circuit breaker outcomes"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerState, err = meter.Int64Gauge(
		"http.client.breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=half-open, 2=open)"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordRequestDuration(
	ctx context.Context,
	duration time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordError(ctx context.Context, kind string, attrs []attribute.KeyValue) {
	if m == nil || m.requestErrors == nil {
		return
	}
	attrs = append(attrs, attribute.String("error.kind", kind))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordTimeout(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.timeouts == nil {
		return
	}
	m.timeouts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordCSRFTokenMissing(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.csrfTokenMissing == nil {
		return
	}
	m.csrfTokenMissing.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordRetryAttempt(ctx context.Context, attrs []attribute.KeyValue, attempt int) {
	if m == nil || m.retryAttempts == nil {
		return
	}
	attrs = append(attrs, attribute.Int("retry.attempt", attempt))
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordRetryExhausted(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.retryExhausted == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordBreakerRequest(ctx context.Context, name, outcome string) {
	if m == nil || m.breakerRequests == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.outcome", outcome),
	))
}

func (m *metrics) recordBreakerState(ctx context.Context, name string, state int64) {
	if m == nil || m.breakerState == nil {
		return
	}
	m.breakerState.Record(ctx, state, metric.WithAttributes(
		attribute.String("breaker.name", name),
	))
}
