// Package deps derives internal dependency edges and compares external package usage
// with the dependencies a manifest declares.
package deps

import (
	"depscope/internal/modgraph"
)

// DependencyEdge aggregates every import record from one file to one internal target.
type DependencyEdge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	ImportCount int      `json:"importCount"`
	Identifiers []string `json:"identifiers"`
}

// BuildEdges emits one edge per (file, internal target) in graph order, targets sorted.
// The result is rebuilt on every call and never cached.
func BuildEdges(src modgraph.Source) []DependencyEdge {
	modgraph.MustSource(src)

	var edges []DependencyEdge
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for _, target := range node.InternalTargets() {
			records := node.Imports.Internal[target]
			edge := DependencyEdge{
				From:        id,
				To:          target,
				ImportCount: len(records),
				Identifiers: []string{},
			}
			for _, rec := range records {
				edge.Identifiers = append(edge.Identifiers, rec.Identifiers...)
			}
			edges = append(edges, edge)
		}
	}
	return edges
}
