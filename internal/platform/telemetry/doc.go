// Package telemetry groups the sync client's observability concerns.
//
// Operational metrics live in telemetry/metrics; tracing is configured by
// platform/otel and attached to every outbound call by the gRPC stats
// handler.
package telemetry
