package httpclient

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// classifyTransportError maps a failed transport call into exactly one
// structured error.
//
// Precedence:
//  1. an error that is already a *Error passes through unchanged, never
//     double-wrapped
//  2. caller cancellation (the parent context is done) → ABORT_ERROR
//  3. the attempt deadline fired → TIMEOUT_ERROR carrying the URL and the
//     effective timeout
//  4. anything else → NETWORK_ERROR wrapping the original failure
func classifyTransportError(
	req *http.Request,
	err error,
	parent context.Context,
	timeout time.Duration,
) *Error {
	if structured, ok := AsError(err); ok {
		return structured
	}

	requestURL := ""
	if req != nil && req.URL != nil {
		requestURL = req.URL.String()
	}

	// The attempt context inherits from the parent, so a deadline error can
	// mean either. The parent being done decides: that cancellation came
	// from the caller, not from the timeout controller.
	if parentErr := parent.Err(); parentErr != nil {
		return abortError(requestURL, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(requestURL, timeout, err)
	}

	return networkError("network request failed: "+err.Error(), requestURL, err)
}

// classifyResponse inspects a completed response. It returns nil for
// success-range statuses (2xx/3xx) and an HTTP_ERROR otherwise, with a
// best-effort decoded error body in the details. The preview is taken from
// the cached body, so the response remains fully readable afterward.
//
// A nil response with no transport error is a defensive NETWORK_ERROR: the
// transport broke its contract.
func classifyResponse(resp *Response) *Error {
	if resp == nil || resp.Response == nil {
		return networkError("no response received", "", nil)
	}
	if resp.IsSuccess() {
		return nil
	}

	requestURL := ""
	if resp.request != nil && resp.request.URL != nil {
		requestURL = resp.request.URL.String()
	}

	return httpError(
		requestURL,
		resp.StatusCode,
		http.StatusText(resp.StatusCode),
		decodeErrorBody(resp.Body()),
	)
}

// decodeErrorBody decodes an error response body best-effort: JSON first,
// plain text second, nil when neither works. It never fails: an unreadable
// preview falls back to nil rather than masking the HTTP error itself.
func decodeErrorBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	if utf8.Valid(body) {
		return string(body)
	}
	return nil
}
