package architecture

import (
	"depscope/internal/deps"
	"depscope/internal/modgraph"
)

// DefaultLayers returns the built-in layer set. The order is the matching order.
func DefaultLayers() []Layer {
	return []Layer{
		{
			Name:                    "presentation",
			PathPatterns:            []string{"**/components/**", "**/pages/**", "**/views/**", "**/ui/**"},
			AllowedDependencyLayers: []string{"domain", "shared"},
			Description:             "UI components, pages and views",
		},
		{
			Name:                    "domain",
			PathPatterns:            []string{"**/domain/**", "**/models/**", "**/entities/**"},
			AllowedDependencyLayers: []string{"shared"},
			Description:             "Business entities and rules",
		},
		{
			Name:                    "infrastructure",
			PathPatterns:            []string{"**/infrastructure/**", "**/api/**", "**/db/**", "**/repositories/**", "**/adapters/**"},
			AllowedDependencyLayers: []string{"domain", "shared"},
			Description:             "I/O adapters: persistence, network, external services",
		},
		{
			Name:                    "shared",
			PathPatterns:            []string{"**/shared/**", "**/utils/**", "**/lib/**", "**/common/**", "**/helpers/**"},
			AllowedDependencyLayers: []string{},
			Description:             "Cross-cutting helpers with no upward dependencies",
		},
	}
}

// AssignLayers maps each relative path to the first layer, in declaration order,
// with a matching pattern. Paths matching no layer are absent from the result.
func AssignLayers(paths []string, layers []Layer) map[string]string {
	assignment := make(map[string]string, len(paths))
	for _, p := range paths {
		if _, done := assignment[p]; done {
			continue
		}
	match:
		for _, layer := range layers {
			for _, pattern := range layer.PathPatterns {
				if MatchPath(pattern, p) {
					assignment[p] = layer.Name
					break match
				}
			}
		}
	}
	return assignment
}

// FindViolations returns the edges whose target layer is neither the source layer nor one it allows.
// assignment is keyed by the same file identities the edges use; unassigned endpoints never violate.
func FindViolations(edges []deps.DependencyEdge, assignment map[string]string, layers []Layer) []Violation {
	allowed := make(map[string]map[string]bool, len(layers))
	for _, layer := range layers {
		set := map[string]bool{layer.Name: true}
		for _, a := range layer.AllowedDependencyLayers {
			set[a] = true
		}
		allowed[layer.Name] = set
	}

	violations := []Violation{}
	for _, e := range edges {
		fromLayer, ok := assignment[e.From]
		if !ok {
			continue
		}
		toLayer, ok := assignment[e.To]
		if !ok {
			continue
		}
		if allowed[fromLayer][toLayer] {
			continue
		}
		violations = append(violations, Violation{
			From:      e.From,
			To:        e.To,
			FromLayer: fromLayer,
			ToLayer:   toLayer,
		})
	}
	return violations
}

// Analyze detects the organization pattern, assigns files to layers and reports violations.
func Analyze(src modgraph.Source, layers []Layer) ArchitectureAnalysis {
	modgraph.MustSource(src)

	ids := src.Files()
	relPaths := make([]string, 0, len(ids))
	for _, id := range ids {
		if node, ok := src.Node(id); ok {
			relPaths = append(relPaths, node.RelPath)
		}
	}

	byRel := AssignLayers(relPaths, layers)
	assignment := make(map[string]string, len(byRel))
	filesByLayer := make(map[string][]string)
	for _, id := range ids {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		if layer, ok := byRel[node.RelPath]; ok {
			assignment[id] = layer
			filesByLayer[layer] = append(filesByLayer[layer], id)
		}
	}

	violations := FindViolations(deps.BuildEdges(src), assignment, layers)

	violatorsByLayer := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, v := range violations {
		if seen[v.ToLayer] == nil {
			seen[v.ToLayer] = make(map[string]bool)
		}
		if !seen[v.ToLayer][v.From] {
			seen[v.ToLayer][v.From] = true
			violatorsByLayer[v.ToLayer] = append(violatorsByLayer[v.ToLayer], v.From)
		}
	}

	results := make([]LayerResult, 0, len(layers))
	for _, layer := range layers {
		r := LayerResult{
			Layer:          layer,
			Files:          filesByLayer[layer.Name],
			ViolatingFiles: violatorsByLayer[layer.Name],
		}
		if r.Files == nil {
			r.Files = []string{}
		}
		if r.ViolatingFiles == nil {
			r.ViolatingFiles = []string{}
		}
		results = append(results, r)
	}

	return ArchitectureAnalysis{
		Pattern:    DetectPattern(relPaths),
		Layers:     results,
		Violations: violations,
	}
}
