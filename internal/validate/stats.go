package validate

import (
	"time"

	"github.com/chainspan/chainspan/internal/trace"
)

// Statistics aggregates a chain for the query surface. LayerCounts
// always carries all six layers, zero-filled when absent; LayersPresent
// lists the populated layers in canonical rank order.
type Statistics struct {
	TotalNodes    int            `json:"total_nodes"`
	LayerCounts   map[string]int `json:"layer_counts"`
	ExecutionTime time.Duration  `json:"execution_time"`
	RootID        string         `json:"root_id"`
	CreatedAt     time.Time      `json:"created_at"`
	LayersPresent []string       `json:"layers_present"`
}

// ChainStatistics computes aggregate statistics for a chain.
func ChainStatistics(chain *trace.Chain) Statistics {
	stats := Statistics{
		LayerCounts:   make(map[string]int, 6),
		LayersPresent: []string{},
	}
	for _, layer := range trace.AllLayers() {
		stats.LayerCounts[layer.Tag()] = 0
	}

	if chain == nil {
		return stats
	}

	stats.TotalNodes = len(chain.Nodes)
	stats.ExecutionTime = chain.GetExecutionTime()
	stats.RootID = chain.RootID
	stats.CreatedAt = chain.CreatedAt

	for _, n := range chain.Nodes {
		stats.LayerCounts[n.Layer.Tag()]++
	}
	for _, layer := range trace.AllLayers() {
		if stats.LayerCounts[layer.Tag()] > 0 {
			stats.LayersPresent = append(stats.LayersPresent, layer.Tag())
		}
	}

	return stats
}
