package httpclient

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// debugLogger is the default zerolog logger for debug output. Replace it
// per client with WithLogger.
var debugLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// logRequest logs the outgoing request details.
func logRequest(logger zerolog.Logger, req *http.Request) {
	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("host", req.Host).
		Msg("HTTP request")
}

// logResponse logs the response details.
func logResponse(logger zerolog.Logger, resp *http.Response, duration time.Duration) {
	logger.Debug().
		Int("status", resp.StatusCode).
		Str("status_text", resp.Status).
		Dur("duration_ms", duration).
		Int64("content_length", resp.ContentLength).
		Msg("HTTP response")
}

// generateCurlCommand creates a cURL command equivalent for the given
// request, usable to reproduce it from the command line. Sensitive headers
// are included verbatim, so treat the output accordingly.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/users' \
//	  -H 'Content-Type: application/json' \
//	  -H 'X-CSRF-Token: abc123' \
//	  -d '{"name":"John"}'
func generateCurlCommand(req *http.Request, body []byte) string {
	var parts []string

	parts = append(parts, "curl")

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, fmt.Sprintf("'%s'", req.URL.String()))

	// Headers sorted for consistent output.
	headerKeys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		headerKeys = append(headerKeys, k)
	}
	sort.Strings(headerKeys)

	for _, k := range headerKeys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", k, v))
		}
	}

	if len(body) > 0 {
		bodyStr := strings.ReplaceAll(string(body), "'", `'\''`)
		parts = append(parts, "-d", fmt.Sprintf("'%s'", bodyStr))
	}

	return strings.Join(parts, " ")
}
