package httpclient

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestInterceptor allows modification of requests before they are sent.
// Interceptors run in registration order, after the header merge, on every
// attempt.
//
// Common use cases:
//   - Adding authentication headers (Bearer tokens, API keys)
//   - Injecting correlation IDs
//   - Custom headers derived from request state
//
// An interceptor may return a *Error to surface a specific kind; any other
// error is wrapped as a NETWORK_ERROR.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor allows inspection of classified successful responses.
// Interceptors run in registration order.
type ResponseInterceptor func(resp *http.Response, req *http.Request) error

// InterceptorChain holds the ordered request and response interceptors a
// client runs.
type InterceptorChain struct {
	onRequest  []RequestInterceptor
	onResponse []ResponseInterceptor
}

// NewInterceptorChain returns a chain with no interceptors registered.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor registers i to run on outgoing requests.
func (c *InterceptorChain) AddRequestInterceptor(i RequestInterceptor) {
	c.onRequest = append(c.onRequest, i)
}

// AddResponseInterceptor registers i to run on classified responses.
func (c *InterceptorChain) AddResponseInterceptor(i ResponseInterceptor) {
	c.onResponse = append(c.onResponse, i)
}

// ApplyRequestInterceptors runs the request interceptors in order, stopping
// at the first failure.
func (c *InterceptorChain) ApplyRequestInterceptors(req *http.Request) error {
	for _, run := range c.onRequest {
		if err := run(req); err != nil {
			return err
		}
	}
	return nil
}

// ApplyResponseInterceptors runs the response interceptors in order,
// stopping at the first failure.
func (c *InterceptorChain) ApplyResponseInterceptors(resp *http.Response, req *http.Request) error {
	for _, run := range c.onResponse {
		if err := run(resp, req); err != nil {
			return err
		}
	}
	return nil
}

// Common interceptor helpers

// AuthBearerInterceptor sets a fixed Bearer token on every request.
func AuthBearerInterceptor(token string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// AuthBearerFuncInterceptor sets a Bearer token obtained per request from
// tokenFunc, for refreshable credentials.
func AuthBearerFuncInterceptor(tokenFunc func() (string, error)) RequestInterceptor {
	return func(req *http.Request) error {
		token, err := tokenFunc()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// APIKeyInterceptor sets a fixed API key on the given header.
func APIKeyInterceptor(headerName, apiKey string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set(headerName, apiKey)
		return nil
	}
}

// CorrelationIDInterceptor sets a random UUID on the given header when the
// request does not already carry one. An empty headerName defaults to
// "X-Request-ID".
func CorrelationIDInterceptor(headerName string) RequestInterceptor {
	if headerName == "" {
		headerName = "X-Request-ID"
	}
	return func(req *http.Request) error {
		if req.Header.Get(headerName) == "" {
			req.Header.Set(headerName, uuid.NewString())
		}
		return nil
	}
}

// UserAgentInterceptor sets the User-Agent header.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}
