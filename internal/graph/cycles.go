package graph

import "depscope/internal/modgraph"

// FindCycles reports circular dependencies over internal import edges.
//
// Every file is a potential DFS root, in graph order, skipping files already visited.
// When an edge reaches a file that is on the current stack, the stack slice from that
// file to the current one (inclusive, traversal order) is reported. One cycle is reported
// per back edge; a self-import is reported as a single-file cycle.
func FindCycles(src modgraph.Source) [][]string {
	modgraph.MustSource(src)

	c := &cycleFinder{
		src:     src,
		visited: make(map[string]bool),
		onStack: make(map[string]int),
	}
	for _, id := range src.Files() {
		if !c.visited[id] {
			c.visit(id)
		}
	}
	if c.cycles == nil {
		return [][]string{}
	}
	return c.cycles
}

type cycleFinder struct {
	src     modgraph.Source
	visited map[string]bool

	// stack is the current DFS path; onStack maps a file to its index in stack.
	stack   []string
	onStack map[string]int

	cycles [][]string
}

func (c *cycleFinder) visit(id string) {
	c.visited[id] = true
	c.onStack[id] = len(c.stack)
	c.stack = append(c.stack, id)

	if node, ok := c.src.Node(id); ok {
		for _, target := range node.InternalTargets() {
			if at, ok := c.onStack[target]; ok {
				cycle := make([]string, len(c.stack)-at)
				copy(cycle, c.stack[at:])
				c.cycles = append(c.cycles, cycle)
				continue
			}
			if !c.visited[target] {
				c.visit(target)
			}
		}
	}

	c.stack = c.stack[:len(c.stack)-1]
	delete(c.onStack, id)
}
