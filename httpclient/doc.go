// Package httpclient provides an HTTP client that layers CSRF token
// injection, deadline-bounded attempts, bounded fixed-delay retry, and a
// uniform structured error taxonomy over the standard library transport.
//
// # Features
//
//   - CSRF token injection on state-changing requests, read from an
//     injectable cookie source, with soft-fail or strict enforcement
//   - A fresh per-attempt deadline, disarmed the moment an attempt settles
//   - Fixed-delay retry of transient failures only (network and timeout);
//     HTTP, validation, CSRF and abort failures propagate immediately
//   - Every failure surfaced as a *Error with a closed Kind taxonomy
//   - Optional circuit breaking (local or Redis-backed) and rate limiting
//   - OpenTelemetry metrics and tracing, zerolog debug logging
//
// # Quick Start
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithCookieSource(httpclient.StaticCookies("csrfToken=abc123")),
//	)
//
//	resp, err := client.Get(ctx, "/users", nil)
//	if err != nil {
//	    return err
//	}
//
//	result, err := httpclient.ProcessJSONResponse(resp)
//
// POST, PUT and PATCH JSON-encode their data argument and carry the CSRF
// token automatically:
//
//	resp, err := client.Post(ctx, "/users", newUser, nil)
//
// # Error Handling
//
// Every failure is a *Error with one of six kinds, suitable for
// programmatic branching:
//
//	resp, err := client.Get(ctx, "/users", nil)
//	if err != nil {
//	    var apiErr *httpclient.Error
//	    if errors.As(err, &apiErr) {
//	        switch apiErr.Kind {
//	        case httpclient.KindHTTP:
//	            log.Printf("status %d: %v", apiErr.Details.Status, apiErr.Details.Body)
//	        case httpclient.KindTimeout:
//	            log.Printf("deadline %s exceeded", apiErr.Details.Timeout)
//	        }
//	    }
//	}
//
// Raw transport errors are never surfaced unwrapped, and the underlying
// cause stays reachable through errors.Is / errors.As.
//
// # Retry Semantics
//
// Retries are strictly sequential with a fixed delay and a fresh deadline
// per attempt. MaxRetries bounds additional attempts: MaxRetries = 3 means
// at most 4 transport calls. Only NETWORK_ERROR and TIMEOUT_ERROR failures
// are retried:
//
//	client := httpclient.New(
//	    httpclient.WithRetryConfig(httpclient.RetryConfig{
//	        Enabled:    true,
//	        MaxRetries: 3,
//	        RetryDelay: time.Second,
//	    }),
//	)
//
// The wait strategy is pluggable via WithRetryBackOff for callers that
// need jitter or growth:
//
//	client := httpclient.New(
//	    httpclient.WithRetryBackOff(httpclient.NewLinearBackOff()),
//	)
//
// # CSRF
//
// With CSRF enabled (the default), POST, PUT, PATCH and DELETE requests
// carry the token from the configured cookie as a header. A missing token
// is logged and the request proceeds; set CSRFConfig.Enforce to fail with
// a CSRF_ERROR instead:
//
//	csrf := httpclient.DefaultCSRFConfig()
//	csrf.Enforce = true
//	client := httpclient.New(
//	    httpclient.WithCSRFConfig(csrf),
//	    httpclient.WithCookieSource(httpclient.NewJarCookieSource(jar, origin)),
//	)
//
// # Testing
//
// MockTransport stubs transport outcomes without a network, including
// ordered sequences for retry scenarios, and WithClock accepts a clockwork
// fake clock to make retry delays deterministic:
//
//	mock := httpclient.NewMockTransport().
//	    StubSequenceError(errors.New("connection refused")).
//	    StubSequenceResponse(200, `{"ok":true}`)
//
//	client := httpclient.New(httpclient.WithTransport(mock))
package httpclient
