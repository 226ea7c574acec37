package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// stateChangingMethods are the methods that carry the CSRF token.
var stateChangingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// RequestOptions carries per-call overrides. A nil *RequestOptions is valid
// and means "client defaults only".
type RequestOptions struct {
	// Headers are merged over the client's default headers and over the
	// injected CSRF header: a caller-supplied value always wins.
	Headers map[string]string

	// Body is the raw request body. Post, Put and Patch fill it from their
	// data argument; set it directly for other methods. The bytes are
	// re-read on every retry attempt.
	Body []byte

	// ContentType sets the Content-Type header when no caller-supplied
	// header already does.
	ContentType string

	// Timeout overrides the client's per-attempt deadline for this call.
	// Zero keeps the default.
	Timeout time.Duration
}

// effectiveTimeout returns the per-attempt deadline for this call.
func (c *Client) effectiveTimeout(opts *RequestOptions) time.Duration {
	if opts != nil && opts.Timeout > 0 {
		return opts.Timeout
	}
	return c.config.httpConfig.Timeout
}

// resolveURL joins the base URL and path verbatim. Duplicate or missing
// slashes are passed through untouched; callers own the exact shape.
func (c *Client) resolveURL(path string) string {
	if c.baseURL == "" {
		return path
	}
	return c.baseURL + path
}

// buildRequest assembles one attempt's request: resolved URL, merged
// headers, CSRF token, credentials and body, bound to the attempt context.
//
// Header precedence, lowest to highest: client defaults, injected CSRF
// header, caller-supplied headers.
//
// Every failure is returned as a *Error; with CSRF enforcement off a
// missing token is logged and the request proceeds without the header.
func (c *Client) buildRequest(
	ctx context.Context,
	method string,
	targetURL string,
	opts *RequestOptions,
) (*http.Request, *Error) {
	var body *bytes.Reader
	if opts != nil && len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, validationError("invalid request: "+targetURL, err)
	}

	// Client defaults first.
	for name, values := range c.defaultHeaders {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	// CSRF token on state-changing methods only.
	if c.config.CSRF.Enabled && stateChangingMethods[method] {
		if token, ok := c.csrf.resolve(); ok {
			req.Header.Set(c.config.CSRF.HeaderName, token)
		} else {
			c.config.Metrics.recordCSRFTokenMissing(ctx, c.config.baseAttributes())
			if c.config.CSRF.Enforce {
				return nil, csrfError(targetURL, c.config.CSRF.CookieName)
			}
			c.config.Logger.Warn().
				Str("method", method).
				Str("url", targetURL).
				Str("cookie", c.config.CSRF.CookieName).
				Msg("CSRF token not found, proceeding without header")
		}
	}

	// Ambient cookies per the credentials policy. A caller-supplied Cookie
	// header wins below.
	if c.config.Credentials == CredentialsInclude {
		if raw := c.config.Cookies.Cookies(); raw != "" {
			req.Header.Set("Cookie", raw)
		}
	}

	// Caller-supplied headers override everything, including the CSRF
	// header.
	if opts != nil {
		for name, v := range opts.Headers {
			req.Header.Set(name, v)
		}
		if opts.ContentType != "" && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", opts.ContentType)
		}
	}

	if err := c.config.Interceptors.ApplyRequestInterceptors(req); err != nil {
		if structured, ok := AsError(err); ok {
			return nil, structured
		}
		return nil, networkError("request interceptor failed", targetURL, err)
	}

	return req, nil
}
