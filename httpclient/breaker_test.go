package httpclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trippyBreakerConfig trips after two consecutive failures with no minimum
// request threshold, so tests can open the circuit quickly.
func trippyBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	}
}

func TestDefaultBreakerClassifier(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{
			name: "given transport error, then counts as failure",
			err:  errors.New("connection refused"),
			want: true,
		},
		{
			name: "given caller cancellation, then does not count",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "given deadline expiry, then does not count",
			err:  context.DeadlineExceeded,
			want: false,
		},
		{
			name: "given 5xx response, then counts as failure",
			resp: &http.Response{StatusCode: 503},
			want: true,
		},
		{
			name: "given 429 response, then does not count",
			resp: &http.Response{StatusCode: 429},
			want: false,
		},
		{
			name: "given 2xx response, then does not count",
			resp: &http.Response{StatusCode: 200},
			want: false,
		},
		{
			name: "given 4xx response, then does not count",
			resp: &http.Response{StatusCode: 404},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultBreakerClassifier(tt.resp, tt.err))
		})
	}
}

func TestCircuitBreakerTransport_Trips(t *testing.T) {
	mock := NewMockTransport().StubResponse(500, "boom")
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithRetryConfig(NoRetryConfig()),
		WithBreakerConfig(trippyBreakerConfig()),
	)

	// Two failures trip the circuit; the 500s still classify normally.
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "/users", nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindHTTP))
	}
	assert.Equal(t, 2, mock.RequestCount())

	// Open circuit: rejected before the transport, surfaced as a network
	// error wrapping gobreaker.ErrOpenState.
	_, err := client.Get(context.Background(), "/users", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, mock.RequestCount(), "open circuit never reaches the transport")
}

func TestCircuitBreakerTransport_SuccessKeepsCircuitClosed(t *testing.T) {
	mock := NewMockTransport().StubResponse(200, "ok")
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithBreakerConfig(trippyBreakerConfig()),
	)

	for i := 0; i < 5; i++ {
		_, err := client.Get(context.Background(), "/users", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, mock.RequestCount())
}

func TestCircuitBreakerTransport_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []gobreaker.State

	bc := trippyBreakerConfig()
	bc.OnStateChange = func(name string, from, to gobreaker.State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, to)
	}

	mock := NewMockTransport().StubError(errConnRefused)
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithRetryConfig(NoRetryConfig()),
		WithBreakerConfig(bc),
	)

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "/users", nil)
		require.Error(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, transitions)
	assert.Equal(t, gobreaker.StateOpen, transitions[len(transitions)-1])
}

func TestCircuitBreakerTransport_ExcludedOutcomesDoNotTrip(t *testing.T) {
	// Only 429s; the default classifier ignores them, so the circuit
	// stays closed no matter how many occur.
	mock := NewMockTransport().StubResponse(429, "slow down")
	client := New(
		WithBaseURL("https://api.example.com"),
		WithTransport(mock),
		WithRetryConfig(NoRetryConfig()),
		WithBreakerConfig(trippyBreakerConfig()),
	)

	for i := 0; i < 5; i++ {
		_, err := client.Get(context.Background(), "/users", nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindHTTP))
	}
	assert.Equal(t, 5, mock.RequestCount())
}

func TestNewCircuitBreakerTransport_Disabled(t *testing.T) {
	mock := NewMockTransport()
	cfg := newConfig(WithTransport(mock))

	rt := newCircuitBreakerTransport(mock, cfg)
	assert.Same(t, http.RoundTripper(mock), rt, "no breaker config means no wrapping")
}
