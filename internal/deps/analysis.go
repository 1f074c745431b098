package deps

import (
	"sort"

	"depscope/internal/manifest"
	"depscope/internal/modgraph"
)

// ExternalDependency is one external package and the files that reference it.
type ExternalDependency struct {
	Name       string   `json:"name"`
	Files      []string `json:"files"`
	IsDeclared bool     `json:"isDeclared"`

	// IsDevOnly is true when every referencing file is a test or config file.
	IsDevOnly bool `json:"isDevOnly"`
	IsBuiltin bool `json:"isBuiltin,omitempty"`
}

// DependencyAnalysis compares declared dependencies with actual usage. Every list is sorted.
type DependencyAnalysis struct {
	// Declared is the union of production, development and peer dependencies.
	Declared []string `json:"declared"`

	// Used is every referenced external package that is not a built-in.
	Used []string `json:"used"`

	// Unused are production or development dependencies that nothing references.
	Unused []string `json:"unused"`

	// Unlisted are referenced packages that are neither declared nor built-in.
	Unlisted []string `json:"unlisted"`

	// Misplaced are production dependencies referenced only from test files.
	Misplaced []string `json:"misplaced"`
}

// usage maps an external package name to the nodes referencing it, in graph order.
func usage(src modgraph.Source) (map[string][]*modgraph.FileNode, []string) {
	refs := make(map[string][]*modgraph.FileNode)
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for _, name := range node.ExternalNames() {
			refs[name] = append(refs[name], node)
		}
	}

	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return refs, names
}

// ExternalUsage lists every referenced external package, sorted by name.
func ExternalUsage(src modgraph.Source, info manifest.DependencyInfo) []ExternalDependency {
	modgraph.MustSource(src)

	refs, names := usage(src)
	out := make([]ExternalDependency, 0, len(names))
	for _, name := range names {
		nodes := refs[name]
		dep := ExternalDependency{
			Name:       name,
			Files:      make([]string, 0, len(nodes)),
			IsDeclared: info.IsDeclared(name),
			IsDevOnly:  true,
			IsBuiltin:  IsBuiltin(name),
		}
		for _, n := range nodes {
			dep.Files = append(dep.Files, n.Path)
			if !n.HasRole(modgraph.RoleTest, modgraph.RoleConfig) {
				dep.IsDevOnly = false
			}
		}
		out = append(out, dep)
	}
	return out
}

// Compare computes the declared-vs-used comparison.
func Compare(src modgraph.Source, info manifest.DependencyInfo) DependencyAnalysis {
	modgraph.MustSource(src)

	refs, names := usage(src)
	result := DependencyAnalysis{
		Declared:  info.Union(),
		Used:      []string{},
		Unused:    []string{},
		Unlisted:  []string{},
		Misplaced: []string{},
	}

	for _, name := range names {
		if IsBuiltin(name) {
			continue
		}
		result.Used = append(result.Used, name)
		if !info.IsDeclared(name) {
			result.Unlisted = append(result.Unlisted, name)
		}
	}

	for _, name := range info.Names(manifest.SetProduction, manifest.SetDevelopment) {
		if len(refs[name]) == 0 {
			result.Unused = append(result.Unused, name)
		}
	}

	for _, name := range info.Names(manifest.SetProduction) {
		nodes := refs[name]
		if len(nodes) == 0 {
			continue
		}
		testOnly := true
		for _, n := range nodes {
			if n.Role != modgraph.RoleTest {
				testOnly = false
				break
			}
		}
		if testOnly {
			result.Misplaced = append(result.Misplaced, name)
		}
	}

	return result
}
