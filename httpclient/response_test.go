package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubResponse(t *testing.T, status int, body string, headers map[string]string) *Response {
	t.Helper()
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	httpResp := &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     h,
		Body:       io.NopCloser(strings.NewReader("")),
	}
	return newResponse(httpResp, testRequest(t, "https://api.example.com/x"), []byte(body))
}

func TestResponse_BodyCaching(t *testing.T) {
	resp := stubResponse(t, 200, `{"a":1}`, nil)

	t.Run("given repeated Body calls, then same bytes every time", func(t *testing.T) {
		assert.Equal(t, resp.Body(), resp.Body())
		assert.Equal(t, `{"a":1}`, resp.String())
		assert.Equal(t, `{"a":1}`, resp.String())
	})

	t.Run("given embedded raw body, then it reads the cached bytes", func(t *testing.T) {
		raw, err := io.ReadAll(resp.Response.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(raw))
	})
}

func TestResponse_StatusPredicates(t *testing.T) {
	tests := []struct {
		status      int
		wantSuccess bool
	}{
		{status: 200, wantSuccess: true},
		{status: 201, wantSuccess: true},
		{status: 204, wantSuccess: true},
		{status: 301, wantSuccess: true},
		{status: 399, wantSuccess: true},
		{status: 400, wantSuccess: false},
		{status: 404, wantSuccess: false},
		{status: 500, wantSuccess: false},
	}

	for _, tt := range tests {
		resp := stubResponse(t, tt.status, "", nil)
		assert.Equal(t, tt.wantSuccess, resp.IsSuccess(), "IsSuccess for %d", tt.status)
		assert.Equal(t, !tt.wantSuccess, resp.IsError(), "IsError for %d", tt.status)
	}
}

func TestResponse_DecodeJSON(t *testing.T) {
	t.Run("given valid json, then decoded into target", func(t *testing.T) {
		resp := stubResponse(t, 200, `{"id":42,"name":"ada"}`, nil)

		var user struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, resp.DecodeJSON(&user))
		assert.Equal(t, 42, user.ID)
		assert.Equal(t, "ada", user.Name)
	})

	t.Run("given malformed json, then validation error", func(t *testing.T) {
		resp := stubResponse(t, 200, `{"id":`, nil)

		var target map[string]any
		err := resp.DecodeJSON(&target)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindValidation))
	})
}

func TestProcessJSONResponse(t *testing.T) {
	t.Run("given json body, then envelope with decoded data", func(t *testing.T) {
		resp := stubResponse(t, 200, `{"items":[1,2]}`, map[string]string{"Content-Type": "application/json"})

		result, err := ProcessJSONResponse(resp)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 200, result.Status)
		assert.Equal(t, map[string]any{"items": []any{float64(1), float64(2)}}, result.Data)
		assert.Equal(t, "application/json", result.Headers["Content-Type"])
	})

	t.Run("given non-json body, then validation error with original failure", func(t *testing.T) {
		resp := stubResponse(t, 200, `<html>definitely not json</html>`, nil)

		_, err := ProcessJSONResponse(resp)
		require.Error(t, err)
		structured, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindValidation, structured.Kind)
		assert.NotEmpty(t, structured.Details.OriginalError)
	})

	t.Run("given json null body, then envelope with nil data", func(t *testing.T) {
		resp := stubResponse(t, 200, `null`, nil)

		result, err := ProcessJSONResponse(resp)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Nil(t, result.Data)
	})
}

func TestProcessTextResponse(t *testing.T) {
	resp := stubResponse(t, 200, "pong", map[string]string{"Content-Type": "text/plain"})

	result, err := ProcessTextResponse(resp)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "pong", result.Data)
	assert.Equal(t, 200, result.Status)
	assert.Equal(t, "text/plain", result.Headers["Content-Type"])
}
