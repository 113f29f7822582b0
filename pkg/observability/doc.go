// Package observability provides logging, metrics, health checks, tracing,
// and graceful shutdown for the APIDock service.
//
// Logging uses structured JSON output via log/slog. Metrics are exposed in
// Prometheus format. Tracing and metric export use OpenTelemetry with OTLP
// over gRPC when enabled.
package observability
