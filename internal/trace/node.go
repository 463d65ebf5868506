package trace

import "time"

// Reserved data keys written only by Tracer.Finish.
const (
	DataKeyResult     = "result"
	DataKeyFinishedAt = "finished_at"
)

// isReservedKey reports whether a data key is owned by Finish. Record
// and initial span data may not write it, since a forged finished_at
// would make IsFinished lie about an open span.
func isReservedKey(key string) bool {
	return key == DataKeyResult || key == DataKeyFinishedAt
}

// Node records one traced event. Nodes are created by Tracer.Start and
// mutated only through Tracer.Record and Tracer.Finish while active;
// afterwards they are immutable.
type Node struct {
	ID        string                 `json:"id"`
	ParentID  string                 `json:"parent_id,omitempty"`
	Layer     Layer                  `json:"layer"`
	Module    string                 `json:"module"`
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// IsRoot reports whether the node anchors its chain.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// IsFinished reports whether the node has been sealed by Finish.
func (n *Node) IsFinished() bool {
	_, ok := n.Data[DataKeyFinishedAt]
	return ok
}

// clone returns a deep copy so readers never observe concurrent Record
// writes to the data map.
func (n *Node) clone() *Node {
	data := make(map[string]interface{}, len(n.Data))
	for k, v := range n.Data {
		data[k] = v
	}
	c := *n
	c.Data = data
	return &c
}
