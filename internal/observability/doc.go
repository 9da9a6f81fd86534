// Package observability provides structured logging and distributed
// tracing for the session authorizer.
//
// Logging is backed by zap behind a small Logger interface so that
// components can accept a logger without depending on zap directly.
// Tracing is backed by OpenTelemetry with an optional OTLP/gRPC
// exporter; when tracing is disabled a no-op tracer is returned.
package observability
