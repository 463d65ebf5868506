package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentTraceDefault(t *testing.T) {
	assert.Equal(t, EmptyTraceID, CurrentTrace(context.Background()))
}

func TestWithCurrentTrace(t *testing.T) {
	ctx := WithCurrentTrace(context.Background(), "node_a")
	assert.Equal(t, "node_a", CurrentTrace(ctx))

	// Clearing.
	cleared := WithCurrentTrace(ctx, EmptyTraceID)
	assert.Equal(t, EmptyTraceID, CurrentTrace(cleared))

	// The original context is untouched.
	assert.Equal(t, "node_a", CurrentTrace(ctx))
}

func TestDerivedContextInheritsTrace(t *testing.T) {
	parent := WithCurrentTrace(context.Background(), "node_a")

	child, cancel := context.WithCancel(parent)
	defer cancel()
	assert.Equal(t, "node_a", CurrentTrace(child))

	// Rebinding in the child does not affect the parent: each
	// concurrency unit mutates its own ambient trace independently.
	rebound := WithCurrentTrace(child, "node_b")
	assert.Equal(t, "node_b", CurrentTrace(rebound))
	assert.Equal(t, "node_a", CurrentTrace(parent))
}
