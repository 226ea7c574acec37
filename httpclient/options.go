package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/arbor-labs/palisade-go/httpclient"
)

// CredentialsPolicy controls how ambient cookies are attached to outgoing
// requests.
type CredentialsPolicy int

const (
	// CredentialsInclude attaches the cookie source's cookies as a Cookie
	// header on every request. This is the default.
	CredentialsInclude CredentialsPolicy = iota

	// CredentialsOmit never attaches ambient cookies. The CSRF token, when
	// enabled, is still delivered through its header.
	CredentialsOmit
)

// =============================================================================
// Config - HTTP Transport Configuration
// =============================================================================

// Config holds transport and deadline configuration. Use DefaultConfig() to
// get a properly initialized configuration, then modify fields as needed.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	cfg.MaxIdleConnsPerHost = 25
//
//	client := httpclient.New(httpclient.WithConfig(cfg))
type Config struct {
	// Timeout is the default per-attempt deadline. Each retry attempt gets
	// a fresh deadline of this duration, measured from the start of the
	// attempt. A per-call timeout overrides it.
	//
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConns caps idle (keep-alive) connections across all hosts.
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections per host. If the client
	// primarily talks to one service, set this close to MaxIdleConns.
	// Default: 20
	MaxIdleConnsPerHost int

	// MaxConnsPerHost caps total (idle + active) connections per host.
	// Zero means unlimited.
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection stays pooled before
	// being closed.
	// Default: 90s
	IdleConnTimeout time.Duration

	// DialTimeout bounds TCP connection establishment.
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	// Default: 30s
	KeepAlive time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout bounds the wait for a "100 Continue" response.
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request is fully written. Zero disables it (the attempt deadline
	// still applies).
	// Default: 0
	ResponseHeaderTimeout time.Duration

	// DisableKeepAlives turns off connection reuse.
	// Default: false
	DisableKeepAlives bool

	// DisableCompression turns off transparent gzip.
	// Default: false
	DisableCompression bool

	// ForceHTTP2 enables HTTP/2 when the server supports it.
	// Default: true
	ForceHTTP2 bool
}

// DefaultConfig returns balanced settings for general-purpose use.
func DefaultConfig() Config {
	return Config{
		Timeout:               30 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceHTTP2:            true,
	}
}

// HighThroughputConfig returns settings tuned for high-concurrency fan-out:
// a large connection pool and generous per-host limits.
func HighThroughputConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxIdleConns = 200
	cfg.MaxIdleConnsPerHost = 50
	cfg.MaxConnsPerHost = 0
	return cfg
}

// LowLatencyConfig returns settings tuned for latency-sensitive callers:
// short deadlines and fast connection establishment.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.DialTimeout = 2 * time.Second
	cfg.TLSHandshakeTimeout = 5 * time.Second
	return cfg
}

// ConservativeConfig returns resource-conscious settings for constrained
// environments.
func ConservativeConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxIdleConns = 50
	cfg.MaxIdleConnsPerHost = 10
	cfg.MaxConnsPerHost = 50
	return cfg
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig holds all configuration: transport, security, resilience
// and observability settings.
type internalConfig struct {
	// httpConfig holds transport and deadline settings.
	httpConfig Config

	// BaseURL is prepended verbatim to every relative path.
	BaseURL string

	// DefaultHeaders are applied to every request unless overridden
	// per call.
	DefaultHeaders http.Header

	// Credentials controls ambient cookie attachment.
	Credentials CredentialsPolicy

	// CSRF configures token sourcing and delivery.
	CSRF CSRFConfig

	// Retry configures the bounded retry loop.
	Retry RetryConfig

	// RetryBackOff optionally replaces the fixed-delay wait strategy.
	RetryBackOff backoff.BackOff

	// BreakerConfig enables the circuit breaker when non-nil.
	BreakerConfig *BreakerConfig

	// RateLimit enables client-side rate limiting when non-nil.
	RateLimit *RateLimitConfig

	// Cookies is the ambient cookie store the CSRF resolver reads.
	Cookies CookieSource

	// Clock schedules retry delays. Swappable for a fake in tests.
	Clock clockwork.Clock

	// Transport overrides the built transport (used by mocks).
	Transport http.RoundTripper

	// Interceptors run before sending and after classification.
	Interceptors *InterceptorChain

	// Logger receives debug and soft-fail logging.
	Logger zerolog.Logger

	// Debug enables request/response logging.
	Debug bool

	// GenerateCurl enables cURL command generation on responses.
	GenerateCurl bool

	// ServiceName identifies this client in traces and metrics.
	ServiceName string

	// TracerProvider, MeterProvider default to the OTel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// Tracer and Meter are derived from the providers.
	Tracer trace.Tracer
	Meter  metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// TLSConfig specifies the TLS configuration, nil for defaults.
	TLSConfig *tls.Config
}

// newConfig creates an internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		DefaultHeaders: make(http.Header),
		CSRF:           DefaultCSRFConfig(),
		Retry:          DefaultRetryConfig(),
		Cookies:        NoCookies,
		Clock:          clockwork.NewRealClock(),
		Interceptors:   NewInterceptorChain(),
		Logger:         debugLogger,
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Instruments stay nil on registration failure; recording is a no-op then.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// buildTransport creates an http.Transport from the configuration.
func (cfg *internalConfig) buildTransport() http.RoundTripper {
	if cfg.Transport != nil {
		return cfg.Transport
	}

	hc := cfg.httpConfig
	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          hc.MaxIdleConns,
		MaxIdleConnsPerHost:   hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:       hc.MaxConnsPerHost,
		IdleConnTimeout:       hc.IdleConnTimeout,
		TLSHandshakeTimeout:   hc.TLSHandshakeTimeout,
		ExpectContinueTimeout: hc.ExpectContinueTimeout,
		ResponseHeaderTimeout: hc.ResponseHeaderTimeout,
		DisableKeepAlives:     hc.DisableKeepAlives,
		DisableCompression:    hc.DisableCompression,
		TLSClientConfig:       cfg.TLSConfig,
		ForceAttemptHTTP2:     hc.ForceHTTP2,
	}
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("http.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options - Functional Options for Client Configuration
// =============================================================================

// Option configures the HTTP client.
type Option func(*internalConfig)

// WithConfig sets the transport and deadline configuration. Use
// DefaultConfig(), HighThroughputConfig(), LowLatencyConfig() or
// ConservativeConfig() as a starting point.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithBaseURL sets the prefix prepended to every relative request path.
// The path is appended verbatim; no slash normalization is performed.
//
// Example:
//
//	client := httpclient.New(httpclient.WithBaseURL("https://api.example.com"))
//	resp, err := client.Get(ctx, "/users", nil)
func WithBaseURL(baseURL string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseURL = baseURL
	}
}

// WithTimeout sets the default per-attempt deadline.
func WithTimeout(d time.Duration) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig.Timeout = d
	}
}

// WithDefaultHeader adds a header applied to every request. Per-call headers
// with the same name take precedence.
func WithDefaultHeader(key, value string) Option {
	return func(cfg *internalConfig) {
		cfg.DefaultHeaders.Set(key, value)
	}
}

// WithDefaultHeaders adds multiple default headers.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(cfg *internalConfig) {
		for k, v := range headers {
			cfg.DefaultHeaders.Set(k, v)
		}
	}
}

// WithCredentialsPolicy controls whether ambient cookies are attached to
// outgoing requests.
func WithCredentialsPolicy(p CredentialsPolicy) Option {
	return func(cfg *internalConfig) {
		cfg.Credentials = p
	}
}

// WithCSRFConfig sets the CSRF token handling configuration.
//
// Example - strict enforcement:
//
//	csrf := httpclient.DefaultCSRFConfig()
//	csrf.Enforce = true
//	client := httpclient.New(
//	    httpclient.WithCSRFConfig(csrf),
//	    httpclient.WithCookieSource(cookies),
//	)
func WithCSRFConfig(c CSRFConfig) Option {
	return func(cfg *internalConfig) {
		if c.CookieName == "" {
			c.CookieName = DefaultCSRFCookieName
		}
		if c.HeaderName == "" {
			c.HeaderName = DefaultCSRFHeaderName
		}
		cfg.CSRF = c
	}
}

// WithCookieSource sets the ambient cookie store the CSRF resolver and the
// credentials policy read from.
func WithCookieSource(s CookieSource) Option {
	return func(cfg *internalConfig) {
		cfg.Cookies = s
	}
}

// WithRetryConfig sets the retry behavior.
func WithRetryConfig(c RetryConfig) Option {
	return func(cfg *internalConfig) {
		cfg.Retry = c
	}
}

// WithRetryBackOff replaces the fixed-delay wait strategy between attempts.
// Eligibility rules are unchanged: only NETWORK_ERROR and TIMEOUT_ERROR
// failures are retried.
//
// Example:
//
//	client := httpclient.New(
//	    httpclient.WithRetryBackOff(httpclient.NewLinearBackOff()),
//	)
func WithRetryBackOff(b backoff.BackOff) Option {
	return func(cfg *internalConfig) {
		cfg.RetryBackOff = b
	}
}

// WithBreakerConfig enables the circuit breaker.
func WithBreakerConfig(c BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.BreakerConfig = &c
	}
}

// WithRateLimitConfig enables client-side rate limiting.
func WithRateLimitConfig(c RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimit = &c
	}
}

// WithClock replaces the clock used for retry delays. Tests inject a
// clockwork fake clock to make delay timing deterministic.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *internalConfig) {
		cfg.Clock = clock
	}
}

// WithTransport replaces the underlying transport. Used with MockTransport
// in tests and for callers bringing their own http.RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.Transport = rt
	}
}

// WithRequestInterceptor appends a request interceptor. Interceptors run in
// registration order after headers are merged, on every attempt.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.Interceptors.AddRequestInterceptor(i)
	}
}

// WithResponseInterceptor appends a response interceptor. Interceptors run
// in registration order on classified successful responses.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.Interceptors.AddResponseInterceptor(i)
	}
}

// WithLogger sets the zerolog logger for debug and soft-fail output.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithGenerateCurl enables cURL command generation on responses.
func WithGenerateCurl(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.GenerateCurl = enabled
	}
}

// WithServiceName sets an identifier for this client in traces and metrics,
// added as the "http.client.name" attribute.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithTLSConfig sets the TLS configuration for the built transport.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		if tp != nil {
			cfg.TracerProvider = tp
		}
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		if mp != nil {
			cfg.MeterProvider = mp
		}
	}
}
