// Package server wires the tracing service together: configuration,
// logging, metrics, the tracer itself, the query handlers, middleware,
// and the WebSocket span feed.
package server
