package config

const (
	// Upstream is the flaky local server the client hammers.
	UpstreamAddr = "localhost:8088"

	// Server configuration
	MetricsPort = ":2112"

	// OpenTelemetry configuration
	OTLPEndpoint   = "localhost:4317"
	ServiceName    = "palisade-resilience-example"
	ServiceVersion = "0.1.0"

	// Operation interval in seconds
	OperationInterval = 2
)
