// Package graph provides graph algorithms over the module graph: cycle detection,
// file classification and centrality ranking.
package graph

import (
	"context"
	"errors"
	"math"
	"sort"
)

// RankOptions configures the personalized PageRank behind KeyFiles.
type RankOptions struct {
	// Damping is the probability of following an import rather than jumping back to a seed.
	Damping float64

	MaxIterations int
	Tolerance     float64

	// TopK bounds the number of ranked files returned.
	TopK int

	// IncludePaths attaches the shortest import chain from a seed to each ranked file.
	IncludePaths bool
}

// DefaultRankOptions returns the options used when none are configured.
func DefaultRankOptions() RankOptions {
	return RankOptions{
		Damping:       0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		TopK:          20,
		IncludePaths:  true,
	}
}

func (o RankOptions) normalized() RankOptions {
	def := DefaultRankOptions()
	if o.Damping <= 0 || o.Damping >= 1 {
		o.Damping = def.Damping
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = def.Tolerance
	}
	if o.TopK <= 0 {
		o.TopK = def.TopK
	}
	return o
}

// RankedFile is a file ranked by its centrality to the seed files.
type RankedFile struct {
	File  string  `json:"file"`
	Score float64 `json:"score"`

	// Path is the import chain from a seed to File, seed first. Seeds have no path.
	Path []string `json:"path,omitempty"`
}

// RankOutput contains the full ranking result.
type RankOutput struct {
	Results    []RankedFile `json:"results"`
	Iterations int          `json:"iterations"`
	Converged  bool         `json:"converged"`
	Seeds      []string     `json:"seeds"`
	TotalFiles int          `json:"totalFiles"`
	TotalEdges int          `json:"totalEdges"`
}

var errNoSeeds = errors.New("no seed files provided")

// rank runs personalized PageRank from seeds. Files without outgoing imports return their
// score to the seeds, so the scores always sum to one.
func (g *weighted) rank(ctx context.Context, seeds []string, opts RankOptions) (*RankOutput, error) {
	if len(seeds) == 0 {
		return nil, errNoSeeds
	}
	opts = opts.normalized()

	out := &RankOutput{
		Results:    []RankedFile{},
		Seeds:      []string{},
		TotalFiles: len(g.files),
		TotalEdges: g.edges,
	}

	seedIdx := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if i, ok := g.index[s]; ok {
			seedIdx = append(seedIdx, i)
			out.Seeds = append(out.Seeds, s)
		}
	}
	if len(seedIdx) == 0 {
		return out, nil
	}

	teleport := make([]float64, len(g.files))
	for _, i := range seedIdx {
		teleport[i] += 1 / float64(len(seedIdx))
	}

	scores, iterations, converged, err := g.iterate(ctx, teleport, opts)
	if err != nil {
		return nil, err
	}
	out.Iterations = iterations
	out.Converged = converged

	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa != sb {
			return sa > sb
		}
		return g.files[order[a]] < g.files[order[b]]
	})
	if len(order) > opts.TopK {
		order = order[:opts.TopK]
	}

	var parent []int
	if opts.IncludePaths {
		parent = g.shortestChains(seedIdx)
	}
	for _, i := range order {
		rf := RankedFile{File: g.files[i], Score: scores[i]}
		if parent != nil && parent[i] >= 0 {
			rf.Path = g.chain(parent, i)
		}
		out.Results = append(out.Results, rf)
	}
	return out, nil
}

// iterate performs power iteration until the largest per-file change drops below the tolerance.
func (g *weighted) iterate(ctx context.Context, teleport []float64, opts RankOptions) ([]float64, int, bool, error) {
	n := len(g.files)
	scores := append([]float64(nil), teleport...)
	next := make([]float64, n)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, err
		}

		dangling := 0.0
		for i := range next {
			next[i] = 0
		}
		for i, edges := range g.out {
			if g.outWeight[i] == 0 {
				dangling += scores[i]
				continue
			}
			share := scores[i] / g.outWeight[i]
			for _, e := range edges {
				next[e.to] += share * e.weight
			}
		}

		delta := 0.0
		for i := range next {
			next[i] = opts.Damping*(next[i]+dangling*teleport[i]) + (1-opts.Damping)*teleport[i]
			delta = math.Max(delta, math.Abs(next[i]-scores[i]))
		}
		scores, next = next, scores

		if delta < opts.Tolerance {
			return scores, iter, true, nil
		}
	}
	return scores, opts.MaxIterations, false, nil
}

// shortestChains runs a breadth-first search from every seed and returns each file's parent on a
// shortest import chain. Seeds and unreachable files have parent -1.
func (g *weighted) shortestChains(seeds []int) []int {
	parent := make([]int, len(g.files))
	seen := make([]bool, len(g.files))
	for i := range parent {
		parent[i] = -1
	}
	queue := make([]int, 0, len(g.files))
	for _, s := range seeds {
		if !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if !seen[e.to] {
				seen[e.to] = true
				parent[e.to] = cur
				queue = append(queue, e.to)
			}
		}
	}
	return parent
}

func (g *weighted) chain(parent []int, i int) []string {
	var rev []string
	for ; i >= 0; i = parent[i] {
		rev = append(rev, g.files[i])
	}
	path := make([]string, len(rev))
	for j, f := range rev {
		path[len(rev)-1-j] = f
	}
	return path
}
