package graph

import (
	"context"

	"depscope/internal/modgraph"
)

// EdgeWeights defines the weight each import record contributes to an edge.
type EdgeWeights struct {
	Static   float64 // import { x } from / import * as x from
	TypeOnly float64 // import type { T } from
	Dynamic  float64 // import("./x")
}

// DefaultEdgeWeights returns sensible defaults for edge weights.
func DefaultEdgeWeights() EdgeWeights {
	return EdgeWeights{
		Static:   1.0,
		TypeOnly: 0.4,
		Dynamic:  0.6,
	}
}

// weighted is the module graph reduced to indexed files and weighted import edges.
type weighted struct {
	files []string
	index map[string]int

	out       [][]weightedEdge
	outWeight []float64
	edges     int
}

type weightedEdge struct {
	to     int
	weight float64
}

// buildWeighted indexes files in graph order. Each (file, target) pair becomes one edge whose
// weight sums its import records; edges follow InternalTargets order.
func buildWeighted(src modgraph.Source, weights EdgeWeights) *weighted {
	files := src.Files()
	g := &weighted{
		files:     files,
		index:     make(map[string]int, len(files)),
		out:       make([][]weightedEdge, len(files)),
		outWeight: make([]float64, len(files)),
	}
	for i, id := range files {
		g.index[id] = i
	}

	for i, id := range files {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for _, target := range node.InternalTargets() {
			to, ok := g.index[target]
			if !ok {
				continue
			}
			w := 0.0
			for _, rec := range node.Imports.Internal[target] {
				switch {
				case rec.Dynamic:
					w += weights.Dynamic
				case rec.TypeOnly:
					w += weights.TypeOnly
				default:
					w += weights.Static
				}
			}
			if w > 0 {
				g.out[i] = append(g.out[i], weightedEdge{to: to, weight: w})
				g.outWeight[i] += w
				g.edges++
			}
		}
	}
	return g
}

// KeyFiles ranks files by how central they are to the seed files, typically the entry points.
// Score flows along import edges, so heavily shared implementation files rank high.
func KeyFiles(ctx context.Context, src modgraph.Source, seeds []string, opts RankOptions) (*RankOutput, error) {
	modgraph.MustSource(src)
	return buildWeighted(src, DefaultEdgeWeights()).rank(ctx, seeds, opts)
}
