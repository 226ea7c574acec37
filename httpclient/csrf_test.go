package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCookie(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		cookie    string
		want      string
		wantFound bool
	}{
		{
			name:      "given single cookie, then value returned",
			raw:       "csrfToken=abc123",
			cookie:    "csrfToken",
			want:      "abc123",
			wantFound: true,
		},
		{
			name:      "given multiple cookies, then named one returned",
			raw:       "session=xyz; csrfToken=abc123; theme=dark",
			cookie:    "csrfToken",
			want:      "abc123",
			wantFound: true,
		},
		{
			name:      "given arbitrary whitespace, then still found",
			raw:       "  session=xyz ;   csrfToken=abc123  ",
			cookie:    "csrfToken",
			want:      "abc123",
			wantFound: true,
		},
		{
			name:      "given url-encoded value, then decoded",
			raw:       "csrfToken=a%2Bb%3Dc",
			cookie:    "csrfToken",
			want:      "a+b=c",
			wantFound: true,
		},
		{
			name:      "given undecodable value, then returned verbatim",
			raw:       "csrfToken=bad%zz",
			cookie:    "csrfToken",
			want:      "bad%zz",
			wantFound: true,
		},
		{
			name:      "given absent cookie, then not found",
			raw:       "session=xyz",
			cookie:    "csrfToken",
			wantFound: false,
		},
		{
			name:      "given empty cookie string, then not found",
			raw:       "",
			cookie:    "csrfToken",
			wantFound: false,
		},
		{
			name:      "given name prefix collision, then exact match only",
			raw:       "csrfTokenOld=stale; csrfToken=fresh",
			cookie:    "csrfToken",
			want:      "fresh",
			wantFound: true,
		},
		{
			name:      "given empty value, then found with empty string",
			raw:       "csrfToken=",
			cookie:    "csrfToken",
			want:      "",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := lookupCookie(tt.raw, tt.cookie)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSRFResolver_Resolve(t *testing.T) {
	t.Run("given enabled config with cookie present, then token resolved", func(t *testing.T) {
		r := &csrfResolver{cfg: DefaultCSRFConfig(), cookies: StaticCookies("csrfToken=abc123")}

		token, ok := r.resolve()
		assert.True(t, ok)
		assert.Equal(t, "abc123", token)
	})

	t.Run("given disabled config, then never resolves", func(t *testing.T) {
		r := &csrfResolver{cfg: DisabledCSRFConfig(), cookies: StaticCookies("csrfToken=abc123")}

		_, ok := r.resolve()
		assert.False(t, ok)
	})

	t.Run("given no cookie source, then not resolved", func(t *testing.T) {
		r := &csrfResolver{cfg: DefaultCSRFConfig(), cookies: nil}

		_, ok := r.resolve()
		assert.False(t, ok)
	})

	t.Run("given repeated resolution, then result is stable", func(t *testing.T) {
		r := &csrfResolver{cfg: DefaultCSRFConfig(), cookies: StaticCookies("csrfToken=abc123")}

		first, okFirst := r.resolve()
		second, okSecond := r.resolve()
		assert.Equal(t, okFirst, okSecond)
		assert.Equal(t, first, second, "resolving is a pure read")
	})

	t.Run("given custom cookie name, then custom cookie used", func(t *testing.T) {
		cfg := CSRFConfig{Enabled: true, CookieName: "XSRF-TOKEN", HeaderName: "X-XSRF-Token"}
		r := &csrfResolver{cfg: cfg, cookies: StaticCookies("csrfToken=wrong; XSRF-TOKEN=right")}

		token, ok := r.resolve()
		assert.True(t, ok)
		assert.Equal(t, "right", token)
	})
}

func TestJarCookieSource(t *testing.T) {
	origin, err := url.Parse("https://api.example.com")
	require.NoError(t, err)

	t.Run("given jar with cookies for origin, then serialized as header value", func(t *testing.T) {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		jar.SetCookies(origin, []*http.Cookie{
			{Name: "csrfToken", Value: "abc123"},
		})

		src := NewJarCookieSource(jar, origin)
		token, ok := lookupCookie(src.Cookies(), "csrfToken")
		assert.True(t, ok)
		assert.Equal(t, "abc123", token)
	})

	t.Run("given nil jar, then empty cookie string", func(t *testing.T) {
		src := NewJarCookieSource(nil, origin)
		assert.Empty(t, src.Cookies())
	})
}
