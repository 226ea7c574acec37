package httpclient

import (
	"context"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Client is an HTTP client that injects CSRF tokens on state-changing
// requests, bounds every attempt with a deadline, retries transient
// failures with a fixed delay, and surfaces every failure as a structured
// *Error.
//
// Create a Client with New():
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithCookieSource(cookies),
//	)
//
//	resp, err := client.Post(ctx, "/payments", payment, nil)
type Client struct {
	// httpClient is the underlying HTTP client with the transport chain.
	httpClient *http.Client

	// config holds all client configuration.
	config *internalConfig

	// baseURL is prepended verbatim to every relative path.
	baseURL string

	// defaultHeaders are applied to all requests.
	defaultHeaders http.Header

	// csrf resolves the token from the ambient cookie source.
	csrf *csrfResolver

	// limiter is the optional client-side rate limiter.
	limiter *rate.Limiter
}

// New creates a Client from the given options.
//
// The client includes:
//   - CSRF token injection from a configurable cookie source
//   - Per-attempt deadlines with a fresh deadline on every retry
//   - Fixed-delay retry of transient failures
//   - A closed, structured error taxonomy
//   - Optional circuit breaking and rate limiting
//
// Example - With retry tuning:
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithRetryConfig(httpclient.RetryConfig{
//	        Enabled:    true,
//	        MaxRetries: 2,
//	        RetryDelay: 500 * time.Millisecond,
//	    }),
//	)
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	transport := cfg.buildTransport()
	withBreaker := newCircuitBreakerTransport(transport, cfg)

	// No http.Client.Timeout: deadlines are armed per attempt so every
	// retry gets a fresh one.
	httpClient := &http.Client{Transport: withBreaker}

	var limiter *rate.Limiter
	if cfg.RateLimit != nil && cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(
			rate.Limit(cfg.RateLimit.RequestsPerSecond),
			cfg.RateLimit.burstOrDefault(),
		)
	}

	return &Client{
		httpClient:     httpClient,
		config:         cfg,
		baseURL:        cfg.BaseURL,
		defaultHeaders: cfg.DefaultHeaders,
		csrf:           &csrfResolver{cfg: cfg.CSRF, cookies: cfg.Cookies},
		limiter:        limiter,
	}
}

// Get executes a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts)
}

// Post executes a POST request. A non-nil data value is JSON-encoded as the
// request body.
func (c *Client) Post(ctx context.Context, path string, data any, opts *RequestOptions) (*Response, error) {
	opts, err := withJSONBody(data, opts)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPost, path, opts)
}

// Put executes a PUT request. A non-nil data value is JSON-encoded as the
// request body.
func (c *Client) Put(ctx context.Context, path string, data any, opts *RequestOptions) (*Response, error) {
	opts, err := withJSONBody(data, opts)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPut, path, opts)
}

// Patch executes a PATCH request. A non-nil data value is JSON-encoded as
// the request body.
func (c *Client) Patch(ctx context.Context, path string, data any, opts *RequestOptions) (*Response, error) {
	opts, err := withJSONBody(data, opts)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPatch, path, opts)
}

// Delete executes a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts)
}

// HTTP returns the underlying *http.Client for advanced use cases, e.g.
// passing it to libraries that expect one. Requests made through it bypass
// CSRF injection, retries and error classification.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// withJSONBody returns a copy of opts with data JSON-encoded as the body.
// The caller's opts are never mutated. An unencodable value yields a
// VALIDATION_ERROR.
func withJSONBody(data any, opts *RequestOptions) (*RequestOptions, error) {
	if data == nil {
		return opts, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, validationError("failed to encode request body as JSON", err)
	}

	merged := RequestOptions{ContentType: "application/json"}
	if opts != nil {
		merged = *opts
		if merged.ContentType == "" {
			merged.ContentType = "application/json"
		}
	}
	merged.Body = encoded
	return &merged, nil
}

// defaultClient backs the package-level one-shot helpers.
var (
	defaultClientOnce sync.Once
	defaultClient     *Client
)

// Fetch performs a single one-shot request with default configuration.
// The url must be absolute since the default client has no base URL.
//
// Example:
//
//	resp, err := httpclient.Fetch(ctx, http.MethodGet, "https://api.example.com/health", nil)
func Fetch(ctx context.Context, method, url string, opts *RequestOptions) (*Response, error) {
	defaultClientOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient.Do(ctx, method, url, opts)
}
