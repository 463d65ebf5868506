// Package main is the entry point for the chainspan tracing service.
//
// The service records causal trees of execution events as logical
// operations flow through six architectural layers, and exposes a
// read-only HTTP surface for inspecting, validating, and aggregating
// the resulting chains.
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML file via -config (file wins over environment)
//   - CLI flags -port and -dev for quick overrides
//
// Usage:
//
//	# Production mode
//	./server -port 8600
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
