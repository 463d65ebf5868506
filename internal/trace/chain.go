package trace

import "time"

// Chain is a tree of causally related nodes sharing one root. Nodes is
// append-ordered (attachment order, not timestamp order).
type Chain struct {
	RootID    string    `json:"root_id"`
	Nodes     []*Node   `json:"nodes"`
	CreatedAt time.Time `json:"created_at"`
}

// GetNode returns the node with the given id, or nil.
func (c *Chain) GetNode(id string) *Node {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// GetChildren returns the nodes whose parent is the given id, in
// attachment order.
func (c *Chain) GetChildren(parentID string) []*Node {
	var children []*Node
	for _, n := range c.Nodes {
		if n.ParentID != "" && n.ParentID == parentID {
			children = append(children, n)
		}
	}
	return children
}

// GetLayerNodes returns every node attributed to the given layer.
func (c *Chain) GetLayerNodes(layer Layer) []*Node {
	var nodes []*Node
	for _, n := range c.Nodes {
		if n.Layer == layer {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// GetPathToRoot walks parent links from the given node to the root and
// returns the root-to-node ordered path. The walk is depth-bounded so a
// malformed cyclic parent graph terminates; nil is returned when the id
// is absent.
func (c *Chain) GetPathToRoot(id string) []*Node {
	node := c.GetNode(id)
	if node == nil {
		return nil
	}

	var reversed []*Node
	for depth := 0; node != nil && depth < MaxWalkDepth; depth++ {
		reversed = append(reversed, node)
		if node.ParentID == "" {
			break
		}
		node = c.GetNode(node.ParentID)
	}

	path := make([]*Node, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path
}

// GetExecutionTime returns max(timestamp) - min(timestamp) across all
// nodes in the chain. This is deliberately the spread over every node,
// not the root's own duration.
func (c *Chain) GetExecutionTime() time.Duration {
	if len(c.Nodes) == 0 {
		return 0
	}
	earliest := c.Nodes[0].Timestamp
	latest := c.Nodes[0].Timestamp
	for _, n := range c.Nodes[1:] {
		if n.Timestamp.Before(earliest) {
			earliest = n.Timestamp
		}
		if n.Timestamp.After(latest) {
			latest = n.Timestamp
		}
	}
	return latest.Sub(earliest)
}

// clone returns a deep copy of the chain and its nodes.
func (c *Chain) clone() *Chain {
	nodes := make([]*Node, len(c.Nodes))
	for i, n := range c.Nodes {
		nodes[i] = n.clone()
	}
	return &Chain{
		RootID:    c.RootID,
		Nodes:     nodes,
		CreatedAt: c.CreatedAt,
	}
}
