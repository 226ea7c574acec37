package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind identifies the failure category of an Error.
//
// The set of kinds is closed: every failure the client can surface maps to
// exactly one of these values, which makes switch-based handling exhaustive.
//
// Example:
//
//	resp, err := client.Get(ctx, "/users", nil)
//	if err != nil {
//	    var apiErr *httpclient.Error
//	    if errors.As(err, &apiErr) {
//	        switch apiErr.Kind {
//	        case httpclient.KindTimeout, httpclient.KindNetwork:
//	            // transient, safe to retry at a higher level
//	        case httpclient.KindHTTP:
//	            log.Printf("server said %d", apiErr.Details.Status)
//	        }
//	    }
//	}
type Kind int

const (
	// KindNetwork indicates a transport or connectivity failure
	// (connection refused, DNS failure, broken pipe, unreadable body).
	KindNetwork Kind = iota

	// KindTimeout indicates the per-attempt deadline elapsed before the
	// request settled.
	KindTimeout

	// KindHTTP indicates the server answered with a non-success status code.
	KindHTTP

	// KindAbort indicates the caller cancelled the request through its
	// context. It is never produced by the client's own deadline.
	KindAbort

	// KindCSRF indicates a state-changing request was refused because no
	// CSRF token could be resolved and enforcement is enabled.
	KindCSRF

	// KindValidation indicates a body could not be encoded or decoded.
	KindValidation
)

// kindNames maps each Kind to its stable wire label.
var kindNames = map[Kind]string{
	KindNetwork:    "NETWORK_ERROR",
	KindTimeout:    "TIMEOUT_ERROR",
	KindHTTP:       "HTTP_ERROR",
	KindAbort:      "ABORT_ERROR",
	KindCSRF:       "CSRF_ERROR",
	KindValidation: "VALIDATION_ERROR",
}

// String returns the stable label for the kind (e.g. "NETWORK_ERROR").
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_ERROR(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler so kinds serialize as their
// stable labels in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Retryable reports whether failures of this kind are transient enough for
// the client's retry loop. Only network and timeout failures qualify; all
// other kinds surface to the caller on first occurrence.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindTimeout
}

// ErrorDetails carries kind-specific context for an Error.
//
// Which fields are populated depends on the Kind:
//   - KindHTTP: Status, StatusText, URL and Body (best-effort decoded error body)
//   - KindTimeout: URL and Timeout (the effective deadline that fired)
//   - KindNetwork, KindAbort, KindValidation: OriginalError
//   - KindCSRF: URL
type ErrorDetails struct {
	// URL is the fully-resolved request URL, when known.
	URL string `json:"url,omitempty"`

	// Status is the HTTP status code for KindHTTP errors.
	Status int `json:"status,omitempty"`

	// StatusText is the HTTP status text for KindHTTP errors.
	StatusText string `json:"statusText,omitempty"`

	// Timeout is the effective per-attempt deadline for KindTimeout errors.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Body is the best-effort decoded error response body for KindHTTP
	// errors: JSON when the body parses as JSON, the raw text otherwise,
	// nil when the body could not be read at all.
	Body any `json:"body,omitempty"`

	// OriginalError preserves the underlying failure text.
	OriginalError string `json:"originalError,omitempty"`
}

// Error is the single structured failure value surfaced by the client.
//
// Every failure path produces exactly one Error; raw transport errors are
// never returned unwrapped. Error integrates with errors.Is / errors.As via
// Unwrap, so the underlying cause remains inspectable.
type Error struct {
	// Kind is the failure category. See the Kind constants.
	Kind Kind `json:"kind"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Details carries kind-specific context. Never nil for errors produced
	// by this package.
	Details *ErrorDetails `json:"details,omitempty"`

	// Timestamp records when the error was constructed. It marshals as an
	// RFC 3339 instant.
	Timestamp time.Time `json:"timestamp"`

	// cause is the underlying error, exposed via Unwrap.
	cause error
}

// NewError constructs an Error of the given kind. The optional cause is
// stored and exposed through Unwrap for errors.Is / errors.As chains.
//
// Most callers never need this; the client constructs errors itself. It is
// exported for callers implementing custom enforcement hooks or transports
// that want to participate in the same taxonomy.
func NewError(kind Kind, message string, details *ErrorDetails, cause ...error) *Error {
	e := &Error{
		Kind:      kind,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if e.Details == nil {
		e.Details = &ErrorDetails{}
	}
	if len(cause) > 0 {
		e.cause = cause[0]
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the client's retry loop may re-attempt after
// this error.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := AsError(err); ok {
		return e.Kind == kind
	}
	return false
}

// ------ internal constructors, one per failure path

func networkError(msg string, requestURL string, cause error) *Error {
	details := &ErrorDetails{URL: requestURL}
	if cause != nil {
		details.OriginalError = cause.Error()
	}
	return NewError(KindNetwork, msg, details, cause)
}

func timeoutError(requestURL string, timeout time.Duration, cause error) *Error {
	return NewError(KindTimeout,
		fmt.Sprintf("request to %s timed out after %s", requestURL, timeout),
		&ErrorDetails{URL: requestURL, Timeout: timeout},
		cause,
	)
}

func httpError(requestURL string, status int, statusText string, body any) *Error {
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	return NewError(KindHTTP,
		fmt.Sprintf("HTTP %d: %s", status, statusText),
		&ErrorDetails{
			URL:        requestURL,
			Status:     status,
			StatusText: statusText,
			Body:       body,
		},
	)
}

func abortError(requestURL string, cause error) *Error {
	details := &ErrorDetails{URL: requestURL}
	if cause != nil {
		details.OriginalError = cause.Error()
	}
	return NewError(KindAbort, "request aborted by caller", details, cause)
}

func csrfError(requestURL string, cookieName string) *Error {
	return NewError(KindCSRF,
		fmt.Sprintf("no CSRF token found in cookie %q", cookieName),
		&ErrorDetails{URL: requestURL},
	)
}

func validationError(msg string, cause error) *Error {
	details := &ErrorDetails{}
	if cause != nil {
		details.OriginalError = cause.Error()
	}
	return NewError(KindValidation, msg, details, cause)
}
