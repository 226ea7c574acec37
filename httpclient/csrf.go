package httpclient

import (
	"net/http"
	"net/url"
	"strings"
)

// Default values for CSRFConfig.
const (
	// DefaultCSRFCookieName is the cookie the token is read from.
	DefaultCSRFCookieName = "csrfToken"

	// DefaultCSRFHeaderName is the header the token is sent back on.
	DefaultCSRFHeaderName = "X-CSRF-Token"
)

// CSRFConfig controls cross-site-request-forgery token handling.
//
// When enabled, the client reads the token from the configured cookie and
// attaches it as a header on state-changing requests (POST, PUT, PATCH,
// DELETE). Reads such as GET never carry the token.
//
// By default a missing token is a soft failure: the request proceeds and a
// warning is logged. Set Enforce to true to fail state-changing requests
// with a CSRF_ERROR instead.
type CSRFConfig struct {
	// Enabled turns CSRF token injection on.
	// Default: true
	Enabled bool

	// CookieName is the cookie the token is read from.
	// Default: "csrfToken"
	CookieName string

	// HeaderName is the header the token is delivered on.
	// Default: "X-CSRF-Token"
	HeaderName string

	// Enforce fails state-changing requests with a CSRF_ERROR when no
	// token can be resolved. When false (the default) the request is sent
	// anyway and the miss is logged at warn level.
	Enforce bool
}

// DefaultCSRFConfig returns the standard soft-fail CSRF configuration.
func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		Enabled:    true,
		CookieName: DefaultCSRFCookieName,
		HeaderName: DefaultCSRFHeaderName,
	}
}

// DisabledCSRFConfig returns a configuration with token injection off.
func DisabledCSRFConfig() CSRFConfig {
	return CSRFConfig{}
}

// CookieSource provides the ambient cookies the CSRF resolver reads from.
//
// Cookies returns the cookie pairs as a single "name=value; name2=value2"
// string, i.e. the same shape a Cookie request header carries. Implementations
// must be safe for concurrent use; the client only ever reads.
//
// The source is an injected capability rather than ambient global state so
// the client can be tested with fake cookie stores.
type CookieSource interface {
	Cookies() string
}

// StaticCookies is a fixed cookie string, useful for tests and for callers
// that already hold a serialized Cookie header value.
type StaticCookies string

// Cookies implements CookieSource.
func (s StaticCookies) Cookies() string { return string(s) }

// NoCookies is a CookieSource with no cookies at all.
var NoCookies CookieSource = StaticCookies("")

// jarCookieSource adapts an http.CookieJar for a fixed origin.
type jarCookieSource struct {
	jar    http.CookieJar
	origin *url.URL
}

// NewJarCookieSource exposes the cookies an http.CookieJar holds for origin
// as a CookieSource. Use this to share a cookie jar between this client and
// other HTTP machinery in the process.
func NewJarCookieSource(jar http.CookieJar, origin *url.URL) CookieSource {
	return &jarCookieSource{jar: jar, origin: origin}
}

// Cookies implements CookieSource.
func (j *jarCookieSource) Cookies() string {
	if j.jar == nil || j.origin == nil {
		return ""
	}
	pairs := j.jar.Cookies(j.origin)
	parts := make([]string, 0, len(pairs))
	for _, c := range pairs {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// csrfResolver reads the CSRF token from a cookie source.
// It is a pure read with no side effects: resolving twice without an
// intervening cookie change returns the same value.
type csrfResolver struct {
	cfg     CSRFConfig
	cookies CookieSource
}

// resolve returns the decoded token value and whether one was found.
// Returns ("", false) when CSRF handling is disabled or the cookie is absent.
func (r *csrfResolver) resolve() (string, bool) {
	if !r.cfg.Enabled || r.cookies == nil {
		return "", false
	}
	return lookupCookie(r.cookies.Cookies(), r.cfg.CookieName)
}

// lookupCookie finds a cookie by name in a "name=value; name2=value2" string.
// It tolerates arbitrary whitespace around pairs and URL-decodes the value.
func lookupCookie(raw, name string) (string, bool) {
	if raw == "" || name == "" {
		return "", false
	}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) != name {
			continue
		}
		value = strings.TrimSpace(value)
		if decoded, err := url.QueryUnescape(value); err == nil {
			return decoded, true
		}
		// Undecodable values are returned verbatim rather than dropped.
		return value, true
	}
	return "", false
}
