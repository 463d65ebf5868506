package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T) *Chain {
	t.Helper()

	base := time.Now()
	root := &Node{ID: "a", Layer: L1, Module: "gateway", Action: "handle", Data: map[string]interface{}{}, Timestamp: base}
	b := &Node{ID: "b", ParentID: "a", Layer: L2, Module: "orders", Action: "create", Data: map[string]interface{}{}, Timestamp: base.Add(time.Millisecond)}
	c := &Node{ID: "c", ParentID: "a", Layer: L2, Module: "orders", Action: "verify", Data: map[string]interface{}{}, Timestamp: base.Add(2 * time.Millisecond)}
	d := &Node{ID: "d", ParentID: "c", Layer: L5, Module: "orders", Action: "insert", Data: map[string]interface{}{}, Timestamp: base.Add(3 * time.Millisecond)}

	return &Chain{
		RootID:    "a",
		Nodes:     []*Node{root, b, c, d},
		CreatedAt: base,
	}
}

func TestGetNode(t *testing.T) {
	chain := buildChain(t)

	require.NotNil(t, chain.GetNode("c"))
	assert.Equal(t, "verify", chain.GetNode("c").Action)
	assert.Nil(t, chain.GetNode("missing"))
}

func TestGetChildren(t *testing.T) {
	chain := buildChain(t)

	children := chain.GetChildren("a")
	require.Len(t, children, 2)
	assert.Equal(t, "b", children[0].ID)
	assert.Equal(t, "c", children[1].ID)

	assert.Empty(t, chain.GetChildren("d"))
	assert.Empty(t, chain.GetChildren("missing"))
}

func TestGetLayerNodes(t *testing.T) {
	chain := buildChain(t)

	assert.Len(t, chain.GetLayerNodes(L2), 2)
	assert.Len(t, chain.GetLayerNodes(L1), 1)
	assert.Empty(t, chain.GetLayerNodes(L6))
}

func TestGetPathToRoot(t *testing.T) {
	chain := buildChain(t)

	path := chain.GetPathToRoot("d")
	require.Len(t, path, 3)
	assert.Equal(t, "a", path[0].ID)
	assert.Equal(t, "c", path[1].ID)
	assert.Equal(t, "d", path[2].ID)

	rootPath := chain.GetPathToRoot("a")
	require.Len(t, rootPath, 1)
	assert.Equal(t, "a", rootPath[0].ID)

	assert.Nil(t, chain.GetPathToRoot("missing"))
}

func TestGetPathToRootCyclicGraph(t *testing.T) {
	// Malformed parent links forming a cycle must terminate.
	x := &Node{ID: "x", ParentID: "y", Layer: L1, Timestamp: time.Now()}
	y := &Node{ID: "y", ParentID: "x", Layer: L2, Timestamp: time.Now()}
	chain := &Chain{RootID: "x", Nodes: []*Node{x, y}, CreatedAt: time.Now()}

	path := chain.GetPathToRoot("x")
	assert.LessOrEqual(t, len(path), MaxWalkDepth)
}

func TestGetExecutionTime(t *testing.T) {
	base := time.Now()
	chain := &Chain{
		RootID: "a",
		Nodes: []*Node{
			// Spread is over all nodes, not the root's own duration:
			// the latest node is a sibling, not a descendant of the
			// earliest.
			{ID: "a", Layer: L1, Timestamp: base.Add(50 * time.Millisecond)},
			{ID: "b", ParentID: "a", Layer: L2, Timestamp: base.Add(200 * time.Millisecond)},
			{ID: "c", ParentID: "a", Layer: L3, Timestamp: base.Add(80 * time.Millisecond)},
		},
		CreatedAt: base,
	}

	assert.Equal(t, 150*time.Millisecond, chain.GetExecutionTime())
}

func TestGetExecutionTimeEmptyAndSingle(t *testing.T) {
	empty := &Chain{RootID: "a"}
	assert.Equal(t, time.Duration(0), empty.GetExecutionTime())

	single := &Chain{RootID: "a", Nodes: []*Node{{ID: "a", Timestamp: time.Now()}}}
	assert.Equal(t, time.Duration(0), single.GetExecutionTime())
}
