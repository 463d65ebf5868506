// Package monitoring provides Prometheus metrics for the tracing
// service: HTTP request metrics via Gin middleware plus tracer
// internals (span throughput, fault counts, chain store occupancy,
// eviction counts).
package monitoring
