// Package trace records the causal tree of execution events produced as
// a logical operation flows through six architectural layers.
//
// Key Components:
//   - Node: one traced event, immutable once finished
//   - Chain: a tree of nodes sharing one root, with traversal helpers
//   - Tracer: span lifecycle orchestration, ambient parent resolution,
//     chain assembly, and age-based eviction
//   - Layer: closed six-value enumeration (L1..L6) parsed from tags or
//     short codes
//
// The ambient "current trace" id rides on context.Context, so spans
// started in concurrently scheduled flows attach to disjoint trees
// without explicit parameter threading:
//
//	ctx, id := tracer.Start(ctx, "L1", "gateway", "handle")
//	doWork(ctx) // nested Start calls attach under id
//	ctx = tracer.Finish(ctx, id, "ok")
//
// Tracing fails open: invalid layers, unknown trace ids, and internal
// panics are logged and converted to no-ops or empty sentinels. The
// instrumented application is never interrupted.
package trace
