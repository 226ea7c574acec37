// Demonstrates the resilience stack end to end: retries with a fixed delay,
// a circuit breaker, client-side rate limiting, and the OpenTelemetry
// metrics they emit, all against a deliberately flaky local upstream.
//
// Run it, then watch http://localhost:2112/metrics for
// http.client.retry.attempts, http.client.errors and
// http.client.breaker.state moving.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/arbor-labs/palisade-go/example/resilience/internal/config"
	"github.com/arbor-labs/palisade-go/example/resilience/internal/telemetry"
	"github.com/arbor-labs/palisade-go/httpclient"
)

// startFlakyUpstream serves an endpoint that fails roughly 40% of the time,
// which is enough to exercise retries without permanently opening the
// circuit.
func startFlakyUpstream() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case rand.Float64() < 0.2:
			time.Sleep(3 * time.Second) // longer than the client deadline
		case rand.Float64() < 0.4:
			http.Error(w, `{"error":"database unavailable"}`, http.StatusServiceUnavailable)
		default:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"orders":[{"id":1},{"id":2}]}`)
		}
	})

	server := &http.Server{Addr: config.UpstreamAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Upstream failed: %v", err)
		}
	}()
	return server
}

func main() {
	ctx := context.Background()

	shutdownTracing, shutdownMetrics, err := telemetry.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup OTel: %v", err)
	}
	defer func() {
		shutdownTracing(ctx)
		shutdownMetrics(ctx)
	}()

	metricsServer := &http.Server{Addr: config.MetricsPort}
	go func() {
		log.Printf("Starting Prometheus metrics server on %s", config.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	upstream := startFlakyUpstream()
	defer upstream.Close()
	time.Sleep(100 * time.Millisecond)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	breaker := httpclient.DefaultBreakerConfig()
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit state changed")
	}

	client := httpclient.New(
		httpclient.WithBaseURL("http://"+config.UpstreamAddr),
		httpclient.WithServiceName(config.ServiceName),
		httpclient.WithTimeout(time.Second),
		httpclient.WithRetryConfig(httpclient.RetryConfig{
			Enabled:    true,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
		}),
		httpclient.WithBreakerConfig(breaker),
		httpclient.WithRateLimitConfig(httpclient.RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             5,
			WaitOnLimit:       true,
		}),
		httpclient.WithLogger(logger),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(config.OperationInterval) * time.Second)
	defer ticker.Stop()

	fmt.Println("Resilience example started")
	fmt.Println("Prometheus metrics: http://localhost:2112/metrics")
	fmt.Println("Press Ctrl+C to stop...")

	for {
		select {
		case <-ticker.C:
			resp, err := client.Get(ctx, "/orders", nil)
			if err != nil {
				var apiErr *httpclient.Error
				if errors.As(err, &apiErr) {
					logger.Error().
						Str("kind", apiErr.Kind.String()).
						Str("message", apiErr.Message).
						Msg("request failed")
				}
				continue
			}
			logger.Info().
				Int("status", resp.StatusCode).
				Int("attempts", resp.Attempts()).
				Msg("request succeeded")

		case <-sigChan:
			fmt.Println("\nShutting down gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
			return
		}
	}
}
