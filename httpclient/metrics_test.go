package httpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectMetricNames flushes the reader and returns the set of recorded
// metric names.
func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetrics_SuccessfulRequest(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mock := NewMockTransport().StubResponse(200, "ok")
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithMeterProvider(provider),
	)

	_, err := client.Get(context.Background(), "/users", nil)
	require.NoError(t, err)

	names := collectMetricNames(t, reader)
	assert.True(t, names["http.client.request.duration"])
	assert.False(t, names["http.client.errors"], "no error metric on success")
}

func TestMetrics_FailuresAndRetries(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mock := NewMockTransport().StubError(errConnRefused)
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithMeterProvider(provider),
		WithRetryConfig(RetryConfig{Enabled: true, MaxRetries: 2, RetryDelay: time.Millisecond}),
	)

	_, err := client.Get(context.Background(), "/users", nil)
	require.Error(t, err)

	names := collectMetricNames(t, reader)
	assert.True(t, names["http.client.request.duration"])
	assert.True(t, names["http.client.errors"])
	assert.True(t, names["http.client.retry.attempts"])
	assert.True(t, names["http.client.retry.exhausted"])
}

func TestMetrics_CSRFTokenMissing(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mock := NewMockTransport().StubResponse(201, "created")
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithMeterProvider(provider),
		WithCookieSource(NoCookies),
	)

	_, err := client.Post(context.Background(), "/users", map[string]string{"name": "ada"}, nil)
	require.NoError(t, err, "missing token is a soft failure")

	names := collectMetricNames(t, reader)
	assert.True(t, names["http.client.csrf.token_missing"])
}

func TestMetrics_NilSafety(t *testing.T) {
	// A nil *metrics must record nothing and panic nowhere.
	var m *metrics

	ctx := context.Background()
	m.recordRequestDuration(ctx, time.Second, nil)
	m.recordError(ctx, "NETWORK_ERROR", nil)
	m.recordTimeout(ctx, nil)
	m.recordCSRFTokenMissing(ctx, nil)
	m.recordRetryAttempt(ctx, nil, 1)
	m.recordRetryExhausted(ctx, nil)
	m.recordBreakerRequest(ctx, "b", "success")
	m.recordBreakerState(ctx, "b", 0)
}
