package httpclient

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// MockTransport is a configurable http.RoundTripper for testing. It can
// stub fixed responses, per-request matches, and ordered sequences of
// outcomes (useful for exercising the retry loop), and records every
// request it sees.
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []stub
	sequence    []stubOutcome
	seqIndex    int
	defaultResp *http.Response
	defaultErr  error
	requests    []*http.Request
	requestHook func(*http.Request)
}

type stub struct {
	matcher  func(*http.Request) bool
	response *http.Response
	err      error
}

// stubOutcome is one step in an ordered sequence.
type stubOutcome struct {
	response *http.Response
	err      error
}

// NewMockTransport creates a new MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse stubs all requests to return the given response.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResp = newStubResponse(statusCode, body)
	return m
}

// StubError stubs all requests to return the given error.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultErr = err
	return m
}

// StubSequenceResponse appends a response step to the ordered sequence.
// Sequence steps are consumed one per request, before any other stubbing is
// consulted; once exhausted, matching falls through to the other stubs.
func (m *MockTransport) StubSequenceResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append(m.sequence, stubOutcome{response: newStubResponse(statusCode, body)})
	return m
}

// StubSequenceError appends an error step to the ordered sequence.
func (m *MockTransport) StubSequenceError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append(m.sequence, stubOutcome{err: err})
	return m
}

// StubPath stubs requests matching the path to return the given response.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.URL.Path == path
	}, statusCode, body)
}

// StubMethod stubs requests with the given method to return the given response.
func (m *MockTransport) StubMethod(method string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.Method == method
	}, statusCode, body)
}

// StubFunc stubs requests matching the predicate to return the given response.
func (m *MockTransport) StubFunc(
	matcher func(*http.Request) bool,
	statusCode int,
	body string,
) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{
		matcher:  matcher,
		response: newStubResponse(statusCode, body),
	})
	return m
}

// StubFuncError stubs requests matching the predicate to return the given error.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{matcher: matcher, err: err})
	return m
}

// OnRequest sets a hook called for each request, useful for assertions.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.requestHook

	// Sequence steps win, one per request.
	if m.seqIndex < len(m.sequence) {
		step := m.sequence[m.seqIndex]
		m.seqIndex++
		m.mu.Unlock()
		if hook != nil {
			hook(req)
		}
		if step.err != nil {
			return nil, step.err
		}
		return cloneStubResponse(step.response), nil
	}
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// First matching stub wins.
	for _, s := range m.stubs {
		if s.matcher(req) {
			if s.err != nil {
				return nil, s.err
			}
			return cloneStubResponse(s.response), nil
		}
	}

	if m.defaultErr != nil {
		return nil, m.defaultErr
	}
	if m.defaultResp != nil {
		return cloneStubResponse(m.defaultResp), nil
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
}

// Requests returns all requests made through this transport.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears all recorded requests and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.sequence = nil
	m.seqIndex = 0
	m.defaultResp = nil
	m.defaultErr = nil
	m.requestHook = nil
}

func newStubResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// cloneStubResponse copies a stub response so each request gets its own
// readable body.
func cloneStubResponse(resp *http.Response) *http.Response {
	if resp == nil {
		return nil
	}

	var bodyBytes []byte
	if resp.Body != nil {
		bodyBytes, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	return &http.Response{
		Status:        resp.Status,
		StatusCode:    resp.StatusCode,
		Header:        resp.Header.Clone(),
		Body:          io.NopCloser(bytes.NewBuffer(bodyBytes)),
		ContentLength: resp.ContentLength,
		Request:       resp.Request,
	}
}
