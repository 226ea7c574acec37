package httpclient

import (
	"bytes"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// Response wraps http.Response with a cached body and convenience helpers.
//
// The body is fully read and cached while the attempt deadline is still
// armed, so reading it never races a stale timer and it can be consumed any
// number of times. An error-body preview taken during classification leaves
// the body readable for the caller.
//
// Example:
//
//	resp, err := client.Get(ctx, "/users", nil)
//	if err != nil {
//	    return err
//	}
//	result, err := httpclient.ProcessJSONResponse(resp)
type Response struct {
	// Response embeds the standard http.Response. All fields and methods
	// are accessible directly, e.g. resp.StatusCode.
	*http.Response

	// request is the final request that produced this response.
	request *http.Request

	// body is the cached response body.
	body []byte

	// attempts is the number of transport calls the logical request took.
	attempts int

	// curlCommand is only populated with WithGenerateCurl(true).
	curlCommand string
}

// newResponse wraps an http.Response whose body has already been drained
// into body. The embedded Body field is reset to a fresh reader over the
// cached bytes so code using the raw http.Response keeps working.
func newResponse(httpResp *http.Response, req *http.Request, body []byte) *Response {
	httpResp.Body = io.NopCloser(bytes.NewReader(body))
	return &Response{
		Response: httpResp,
		request:  req,
		body:     body,
	}
}

// Body returns the cached response body. It never consumes anything:
// calling it repeatedly returns the same bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// IsSuccess reports whether the status code is in the success range
// (2xx or 3xx).
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// IsError reports whether the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Attempts returns how many transport calls this logical request took,
// including the successful one.
func (r *Response) Attempts() int {
	return r.attempts
}

// CurlCommand returns the cURL command equivalent for the request.
// Only populated when WithGenerateCurl(true) was set on the client.
func (r *Response) CurlCommand() string {
	return r.curlCommand
}

// DecodeJSON decodes the cached body into target. On parse failure it
// returns a VALIDATION_ERROR with the original failure preserved.
func (r *Response) DecodeJSON(target any) error {
	if err := json.Unmarshal(r.body, target); err != nil {
		return validationError("failed to decode JSON response body", err)
	}
	return nil
}

// headerMap flattens the response headers into a name → first-value map.
func (r *Response) headerMap() map[string]string {
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	return headers
}

// Result is the uniform success envelope returned by the body decoders.
type Result struct {
	// Success is always true for a returned envelope; decode failures
	// surface as a VALIDATION_ERROR instead.
	Success bool `json:"success"`

	// Data is the decoded body: any JSON value for ProcessJSONResponse,
	// a string for ProcessTextResponse.
	Data any `json:"data"`

	// Status is the HTTP status code.
	Status int `json:"status"`

	// Headers holds the response headers, first value per name.
	Headers map[string]string `json:"headers"`
}

// ProcessJSONResponse decodes the response body as JSON and wraps it in a
// Result envelope. A body that does not parse as JSON yields a
// VALIDATION_ERROR with the parse failure in Details.OriginalError.
//
// This is a terminal operation: decode failures are never retried and never
// reclassified.
func ProcessJSONResponse(resp *Response) (*Result, error) {
	var data any
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, validationError("failed to parse JSON response", err)
	}
	return &Result{
		Success: true,
		Data:    data,
		Status:  resp.StatusCode,
		Headers: resp.headerMap(),
	}, nil
}

// ProcessTextResponse wraps the response body as text in a Result envelope.
func ProcessTextResponse(resp *Response) (*Result, error) {
	return &Result{
		Success: true,
		Data:    resp.String(),
		Status:  resp.StatusCode,
		Headers: resp.headerMap(),
	}, nil
}
