// Package ws streams sealed spans to WebSocket observers in real time.
//
// The hub fans the tracer's buffered event channel out to every
// connected client. Clients are write-only consumers; slow clients have
// events dropped rather than backpressuring the tracer.
package ws
