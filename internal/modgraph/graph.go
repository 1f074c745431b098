package modgraph

import (
	"fmt"
	"sort"

	deperrors "depscope/internal/errors"
)

// Source is anything that can be queried for FileNodes by identity.
// Every analysis depends on Source rather than on a concrete front-end.
type Source interface {
	// Files returns every file identity in a stable order.
	Files() []string

	// Node returns the node for a file identity.
	Node(id string) (*FileNode, bool)
}

// Graph is an immutable module graph keyed by file identity.
// Nodes are stored in an arena indexed by insertion order; cross references are identities.
type Graph struct {
	order []string
	nodes map[string]*FileNode
}

// Files returns file identities in insertion order. The returned slice must not be modified.
func (g *Graph) Files() []string {
	return g.order
}

// Node returns the node for id.
func (g *Graph) Node(id string) (*FileNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of files.
func (g *Graph) Len() int {
	return len(g.order)
}

// Empty returns a graph with no files.
func Empty() *Graph {
	return &Graph{nodes: map[string]*FileNode{}}
}

// Builder assembles a Graph. It is not safe for concurrent use.
type Builder struct {
	order []string
	nodes map[string]*FileNode
	built bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*FileNode)}
}

// Add registers a node under its Path identity.
func (b *Builder) Add(node *FileNode) error {
	if b.built {
		return deperrors.Newf(deperrors.InternalError, "builder already built")
	}
	if node == nil || node.Path == "" {
		return deperrors.Newf(deperrors.GraphInvalid, "file node without identity")
	}
	if _, exists := b.nodes[node.Path]; exists {
		return deperrors.Newf(deperrors.GraphInvalid, "duplicate file %s", node.Path)
	}
	if node.Imports.Internal == nil {
		node.Imports.Internal = make(map[string][]ImportRecord)
	}
	if node.Imports.External == nil {
		node.Imports.External = make(map[string]struct{})
	}
	if node.Role == "" {
		node.Role = RoleUnknown
	}
	b.order = append(b.order, node.Path)
	b.nodes[node.Path] = node
	return nil
}

// Build links back-references and returns the graph.
// ImportedBy is recomputed from Imports.Internal so the symmetry invariant always holds.
func (b *Builder) Build() (*Graph, error) {
	if b.built {
		return nil, deperrors.Newf(deperrors.InternalError, "builder already built")
	}

	importedBy := make(map[string]map[string]struct{}, len(b.nodes))
	for _, id := range b.order {
		node := b.nodes[id]
		for target := range node.Imports.Internal {
			if _, ok := b.nodes[target]; !ok {
				return nil, deperrors.Newf(deperrors.GraphInvalid,
					"%s imports %s which is not part of the graph", node.RelPath, target)
			}
			if importedBy[target] == nil {
				importedBy[target] = make(map[string]struct{})
			}
			importedBy[target][id] = struct{}{}
		}
	}

	for _, id := range b.order {
		node := b.nodes[id]
		node.ImportedBy = sortedKeys(importedBy[id])
	}

	b.built = true
	return &Graph{order: b.order, nodes: b.nodes}, nil
}

// Validate checks that ImportedBy is symmetric with Imports.Internal for every file
// and that every internal target exists.
func Validate(src Source) error {
	MustSource(src)

	for _, id := range src.Files() {
		node, _ := src.Node(id)
		for target := range node.Imports.Internal {
			tn, ok := src.Node(target)
			if !ok {
				return deperrors.Newf(deperrors.GraphInvalid, "%s imports unknown file %s", id, target)
			}
			if !contains(tn.ImportedBy, id) {
				return deperrors.Newf(deperrors.GraphInvalid, "%s imports %s but is missing from its importedBy", id, target)
			}
		}
		for _, from := range node.ImportedBy {
			fn, ok := src.Node(from)
			if !ok {
				return deperrors.Newf(deperrors.GraphInvalid, "%s is imported by unknown file %s", id, from)
			}
			if _, ok := fn.Imports.Internal[id]; !ok {
				return deperrors.Newf(deperrors.GraphInvalid, "%s lists %s in importedBy without an import", id, from)
			}
		}
	}
	return nil
}

// MustSource panics when src is nil. A nil graph is a programmer error, not incomplete input.
func MustSource(src Source) {
	if src == nil {
		panic("modgraph: nil Source")
	}
	if g, ok := src.(*Graph); ok && g == nil {
		panic(fmt.Sprintf("modgraph: nil %T", g))
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
