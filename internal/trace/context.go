package trace

import "context"

// Context keys for ambient trace propagation
type contextKey string

const currentTraceKey contextKey = "current_trace"

// WithCurrentTrace returns a context carrying the given trace id as the
// ambient parent for spans started from it. Passing the empty id clears
// the ambient trace.
func WithCurrentTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, currentTraceKey, id)
}

// CurrentTrace retrieves the ambient trace id from the context, or the
// empty sentinel when none is set.
func CurrentTrace(ctx context.Context) string {
	if id, ok := ctx.Value(currentTraceKey).(string); ok {
		return id
	}
	return ""
}
