package validate

import (
	"fmt"

	"github.com/chainspan/chainspan/internal/trace"
)

// Result reports a chain's structural integrity. Errors make the chain
// invalid; warnings flag unusual but consistent structure and never
// affect validity.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// CoverageResult reports whether a chain touches a required layer set.
type CoverageResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateChain checks a chain's structural, temporal, and ordering
// integrity. It never mutates the chain and never fails: every problem
// found is surfaced in the result.
func ValidateChain(chain *trace.Chain) Result {
	result := Result{
		Errors:   []string{},
		Warnings: []string{},
	}

	if chain == nil || len(chain.Nodes) == 0 {
		result.Errors = append(result.Errors, "chain has no nodes")
		return result
	}

	byID := make(map[string]*trace.Node, len(chain.Nodes))
	for _, n := range chain.Nodes {
		byID[n.ID] = n
	}

	// Completeness: every parent reference resolves inside the chain.
	for _, n := range chain.Nodes {
		if n.ParentID == "" {
			continue
		}
		if _, ok := byID[n.ParentID]; !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Broken link: node %s references missing parent %s", n.ID, n.ParentID))
		}
	}

	// Root integrity: the named root exists, has no parent, and every
	// other node has one.
	root, ok := byID[chain.RootID]
	switch {
	case !ok:
		result.Errors = append(result.Errors,
			fmt.Sprintf("root node %s not found in chain", chain.RootID))
	case root.ParentID != "":
		result.Errors = append(result.Errors,
			fmt.Sprintf("root node %s has parent %s", root.ID, root.ParentID))
	}
	for _, n := range chain.Nodes {
		if n.ID != chain.RootID && n.ParentID == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("orphaned node %s has no parent", n.ID))
		}
	}

	// Timestamp monotonicity along every resolvable edge.
	for _, n := range chain.Nodes {
		if n.ParentID == "" {
			continue
		}
		parent, ok := byID[n.ParentID]
		if !ok {
			continue
		}
		if n.Timestamp.Before(parent.Timestamp) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("node %s predates its parent %s", n.ID, parent.ID))
		}
	}

	result.Warnings = append(result.Warnings, flowWarnings(chain)...)
	result.Valid = len(result.Errors) == 0
	return result
}

// flowWarnings traverses the chain depth-first from the root and flags
// every adjacent visit pair whose layer rank decreases (backward flow).
// A visited set truncates cycles silently.
func flowWarnings(chain *trace.Chain) []string {
	warnings := []string{}

	root := chain.GetNode(chain.RootID)
	if root == nil {
		return warnings
	}

	visited := make(map[string]bool)
	var order []trace.Layer

	var visit func(n *trace.Node)
	visit = func(n *trace.Node) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		order = append(order, n.Layer)
		for _, child := range chain.GetChildren(n.ID) {
			visit(child)
		}
	}
	visit(root)

	for i := 1; i < len(order); i++ {
		if order[i].Rank() < order[i-1].Rank() {
			warnings = append(warnings,
				fmt.Sprintf("backward flow: %s visited after %s", order[i].Tag(), order[i-1].Tag()))
		}
	}
	return warnings
}

// ValidateLayerCoverage checks that every required layer has at least
// one node in the chain, with one error per missing layer.
func ValidateLayerCoverage(chain *trace.Chain, required []trace.Layer) CoverageResult {
	result := CoverageResult{Errors: []string{}}

	present := make(map[trace.Layer]bool)
	if chain != nil {
		for _, n := range chain.Nodes {
			present[n.Layer] = true
		}
	}

	for _, layer := range required {
		if !present[layer] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("missing layer %s (%s)", layer.Tag(), layer.Name()))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
