package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := newConfig()

	assert.Equal(t, 30*time.Second, cfg.httpConfig.Timeout)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, CredentialsInclude, cfg.Credentials)
	assert.True(t, cfg.CSRF.Enabled)
	assert.Equal(t, DefaultCSRFCookieName, cfg.CSRF.CookieName)
	assert.Equal(t, DefaultCSRFHeaderName, cfg.CSRF.HeaderName)
	assert.False(t, cfg.CSRF.Enforce, "missing token is a soft failure by default")
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, uint(DefaultMaxRetries), cfg.Retry.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.Retry.RetryDelay)
	assert.Nil(t, cfg.BreakerConfig, "circuit breaking is opt-in")
	assert.Nil(t, cfg.RateLimit, "rate limiting is opt-in")
	assert.Equal(t, NoCookies, cfg.Cookies)
	assert.NotNil(t, cfg.Clock)
	assert.NotNil(t, cfg.Interceptors)
	assert.NotNil(t, cfg.Metrics)
}

func TestConfigPresets(t *testing.T) {
	t.Run("given high throughput preset, then pool is enlarged", func(t *testing.T) {
		cfg := HighThroughputConfig()
		assert.Equal(t, 200, cfg.MaxIdleConns)
		assert.Equal(t, 50, cfg.MaxIdleConnsPerHost)
		assert.Zero(t, cfg.MaxConnsPerHost, "no per-host cap for fan-out")
	})

	t.Run("given low latency preset, then deadlines tighten", func(t *testing.T) {
		cfg := LowLatencyConfig()
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	})

	t.Run("given conservative preset, then pool shrinks", func(t *testing.T) {
		cfg := ConservativeConfig()
		assert.Equal(t, 50, cfg.MaxIdleConns)
		assert.Equal(t, 10, cfg.MaxIdleConnsPerHost)
	})
}

func TestOptions(t *testing.T) {
	t.Run("given WithCSRFConfig with empty names, then defaults filled in", func(t *testing.T) {
		cfg := newConfig(WithCSRFConfig(CSRFConfig{Enabled: true, Enforce: true}))

		assert.Equal(t, DefaultCSRFCookieName, cfg.CSRF.CookieName)
		assert.Equal(t, DefaultCSRFHeaderName, cfg.CSRF.HeaderName)
		assert.True(t, cfg.CSRF.Enforce)
	})

	t.Run("given WithDefaultHeaders, then all headers registered", func(t *testing.T) {
		cfg := newConfig(WithDefaultHeaders(map[string]string{
			"Accept":        "application/json",
			"X-Api-Version": "v2",
		}))

		assert.Equal(t, "application/json", cfg.DefaultHeaders.Get("Accept"))
		assert.Equal(t, "v2", cfg.DefaultHeaders.Get("X-Api-Version"))
	})

	t.Run("given WithTimeout, then per-attempt deadline changes", func(t *testing.T) {
		cfg := newConfig(WithTimeout(5 * time.Second))
		assert.Equal(t, 5*time.Second, cfg.httpConfig.Timeout)
	})

	t.Run("given WithServiceName, then base attributes carry it", func(t *testing.T) {
		cfg := newConfig(WithServiceName("payments-api"))

		attrs := cfg.baseAttributes()
		require.Len(t, attrs, 1)
		assert.Equal(t, "http.client.name", string(attrs[0].Key))
		assert.Equal(t, "payments-api", attrs[0].Value.AsString())
	})

	t.Run("given no service name, then no base attributes", func(t *testing.T) {
		assert.Empty(t, newConfig().baseAttributes())
	})
}

func TestBuildTransport(t *testing.T) {
	t.Run("given no override, then a configured http.Transport", func(t *testing.T) {
		cfg := newConfig(WithConfig(HighThroughputConfig()))

		rt := cfg.buildTransport()
		transport, ok := rt.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 200, transport.MaxIdleConns)
		assert.Equal(t, 50, transport.MaxIdleConnsPerHost)
		assert.True(t, transport.ForceAttemptHTTP2)
	})

	t.Run("given a transport override, then it is used verbatim", func(t *testing.T) {
		mock := NewMockTransport()
		cfg := newConfig(WithTransport(mock))

		assert.Same(t, http.RoundTripper(mock), cfg.buildTransport())
	})
}
