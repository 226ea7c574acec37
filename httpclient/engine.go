package httpclient

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Do executes a request through the full pipeline and is the single entry
// point behind every verb method.
//
// Per attempt: resolve the URL, build the request, arm the deadline, invoke
// the transport, classify the outcome. The deadline is disarmed as soon as
// the attempt settles. The whole per-attempt sequence is what the retry
// loop wraps: transient failures (NETWORK_ERROR, TIMEOUT_ERROR) are retried
// up to MaxRetries additional times with a fixed delay, everything else
// propagates immediately.
//
// The returned error, when non-nil, is always a *Error.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error) {
	targetURL := c.resolveURL(path)
	timeout := c.effectiveTimeout(opts)

	attrs := append(c.config.baseAttributes(),
		attribute.String("http.request.method", method),
		attribute.String("url.full", targetURL),
	)

	ctx, span := c.config.Tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		c.config.Metrics.recordRequestDuration(ctx, time.Since(start), attrs)
	}()

	maxAttempts := c.config.Retry.maxAttempts()
	delay := c.config.delayStrategy()

	var lastErr *Error
	for attempt := 1; ; attempt++ {
		resp, attemptErr := c.attempt(ctx, method, targetURL, opts, timeout)
		if attemptErr == nil {
			resp.attempts = attempt
			span.SetAttributes(
				attribute.Int("http.response.status_code", resp.StatusCode),
				attribute.Int("http.retry_count", attempt-1),
			)
			return resp, nil
		}

		lastErr = attemptErr
		c.config.Metrics.recordError(ctx, attemptErr.Kind.String(), attrs)
		if attemptErr.Kind == KindTimeout {
			c.config.Metrics.recordTimeout(ctx, attrs)
		}

		if !attemptErr.Retryable() || attempt >= maxAttempts {
			if attemptErr.Retryable() && maxAttempts > 1 {
				c.config.Metrics.recordRetryExhausted(ctx, attrs)
			}
			break
		}

		wait := delay.NextBackOff()
		if wait == backoff.Stop {
			break
		}

		c.config.Metrics.recordRetryAttempt(ctx, attrs, attempt)
		c.recordRetryEvent(span, attempt, attemptErr, wait)
		c.config.Logger.Debug().
			Str("method", method).
			Str("url", targetURL).
			Int("attempt", attempt).
			Str("kind", attemptErr.Kind.String()).
			Dur("delay", wait).
			Msg("retrying request")

		if err := c.sleep(ctx, wait); err != nil {
			lastErr = abortError(targetURL, err)
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

// attempt performs exactly one transport call: build, arm deadline, send,
// drain the body, classify. The deadline covers the body read so a stalled
// stream counts against the attempt, and is disarmed the moment the attempt
// settles.
func (c *Client) attempt(
	ctx context.Context,
	method string,
	targetURL string,
	opts *RequestOptions,
	timeout time.Duration,
) (*Response, *Error) {
	if rlErr := c.waitRateLimit(ctx, targetURL); rlErr != nil {
		return nil, rlErr
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, buildErr := c.buildRequest(attemptCtx, method, targetURL, opts)
	if buildErr != nil {
		return nil, buildErr
	}

	if c.config.Debug {
		logRequest(c.config.Logger, req)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(req, err, ctx, timeout)
	}

	// Drain into memory while the deadline is still armed. This is also
	// what keeps the body re-readable: the classifier's error preview and
	// the caller both consume cached bytes.
	body, readErr := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if readErr != nil {
		return nil, classifyTransportError(req, readErr, ctx, timeout)
	}

	if c.config.Debug {
		logResponse(c.config.Logger, httpResp, time.Since(start))
	}

	resp := newResponse(httpResp, req, body)
	if c.config.GenerateCurl {
		var reqBody []byte
		if opts != nil {
			reqBody = opts.Body
		}
		resp.curlCommand = generateCurlCommand(req, reqBody)
	}

	if classified := classifyResponse(resp); classified != nil {
		return nil, classified
	}

	if err := c.config.Interceptors.ApplyResponseInterceptors(resp.Response, req); err != nil {
		if structured, ok := AsError(err); ok {
			return nil, structured
		}
		return nil, validationError("response interceptor failed", err)
	}

	return resp, nil
}

// waitRateLimit applies the optional client-side rate limiter ahead of an
// attempt. In wait mode the limiter respects the caller's context; in
// fail-fast mode rejection surfaces as a NETWORK_ERROR.
func (c *Client) waitRateLimit(ctx context.Context, targetURL string) *Error {
	if c.limiter == nil {
		return nil
	}

	if c.config.RateLimit.WaitOnLimit {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return abortError(targetURL, err)
			}
			return networkError("rate limiter rejected request", targetURL, err)
		}
		return nil
	}

	if !c.limiter.Allow() {
		return networkError("rate limit exceeded", targetURL, ErrRateLimited)
	}
	return nil
}

// sleep waits between attempts on the configured clock, bailing out when
// the caller cancels.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-c.config.Clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordRetryEvent adds a span event for a retry transition.
func (c *Client) recordRetryEvent(span trace.Span, attempt int, cause *Error, wait time.Duration) {
	if !span.IsRecording() {
		return
	}
	span.AddEvent("http.retry", trace.WithAttributes(
		attribute.Int("retry.attempt", attempt),
		attribute.Int64("retry.delay_ms", wait.Milliseconds()),
		attribute.String("retry.reason", cause.Kind.String()),
	))
}
