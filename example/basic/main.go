// A minimal tour of the client: CSRF-aware requests, structured errors and
// the JSON result envelope, against a throwaway local server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arbor-labs/palisade-go/httpclient"
)

func main() {
	// A stand-in API: echoes the CSRF header back and serves one user.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":42,"name":"Ada Lovelace"}`)
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			http.Error(w, `{"error":"missing csrf token"}`, http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"created":true,"token_seen":%q}`, token)
	})

	server := &http.Server{Addr: "localhost:8087", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	defer server.Close()
	time.Sleep(100 * time.Millisecond)

	client := httpclient.New(
		httpclient.WithBaseURL("http://localhost:8087"),
		httpclient.WithCookieSource(httpclient.StaticCookies("csrfToken=abc123; session=s1")),
		httpclient.WithTimeout(5*time.Second),
	)

	ctx := context.Background()

	// GET with the JSON envelope.
	resp, err := client.Get(ctx, "/users/42", nil)
	if err != nil {
		log.Fatal(err)
	}
	result, err := httpclient.ProcessJSONResponse(resp)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("GET /users/42 -> %d %v\n", result.Status, result.Data)

	// POST carries the CSRF token automatically.
	resp, err = client.Post(ctx, "/users", map[string]string{"name": "Grace Hopper"}, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("POST /users -> %d %s\n", resp.StatusCode, resp.String())

	// Failures are structured: switch on the kind.
	_, err = client.Get(ctx, "/missing", nil)
	if err != nil {
		var apiErr *httpclient.Error
		if errors.As(err, &apiErr) {
			switch apiErr.Kind {
			case httpclient.KindHTTP:
				fmt.Printf("GET /missing -> HTTP %d (%s)\n", apiErr.Details.Status, apiErr.Details.StatusText)
			case httpclient.KindNetwork, httpclient.KindTimeout:
				fmt.Printf("transient failure: %v\n", apiErr)
			default:
				fmt.Printf("failure: %v\n", apiErr)
			}
		}
	}
}
