package testutil

import (
	"testing"

	"depscope/internal/modgraph"
)

// GraphFixture assembles a module graph in code. File identities double as relative paths.
type GraphFixture struct {
	t     *testing.T
	order []string
	files map[string]*FileFixture
}

// FileFixture configures one file of a GraphFixture.
type FileFixture struct {
	node *modgraph.FileNode
	line int
}

// NewGraph starts an empty graph fixture.
func NewGraph(t *testing.T) *GraphFixture {
	t.Helper()
	return &GraphFixture{t: t, files: make(map[string]*FileFixture)}
}

// File adds (or returns) a file with the given role.
func (g *GraphFixture) File(id string, role modgraph.Role) *FileFixture {
	if f, ok := g.files[id]; ok {
		f.node.Role = role
		return f
	}
	f := &FileFixture{node: modgraph.NewFileNode(id, id, role)}
	g.files[id] = f
	g.order = append(g.order, id)
	return f
}

// Build links the graph, failing the test on contract violations.
func (g *GraphFixture) Build() *modgraph.Graph {
	g.t.Helper()

	b := modgraph.NewBuilder()
	for _, id := range g.order {
		if err := b.Add(g.files[id].node); err != nil {
			g.t.Fatalf("add %s: %v", id, err)
		}
	}
	graph, err := b.Build()
	if err != nil {
		g.t.Fatalf("build graph: %v", err)
	}
	return graph
}

// Import adds a static import of identifiers from target.
func (f *FileFixture) Import(target string, identifiers ...string) *FileFixture {
	return f.addImport(target, identifiers, false, false)
}

// ImportAll adds import * as X from target.
func (f *FileFixture) ImportAll(target string) *FileFixture {
	return f.addImport(target, []string{modgraph.NamespaceIdentifier}, false, false)
}

// TypeImport adds import type { ... } from target.
func (f *FileFixture) TypeImport(target string, identifiers ...string) *FileFixture {
	return f.addImport(target, identifiers, true, false)
}

// DynamicImport adds import(target).
func (f *FileFixture) DynamicImport(target string) *FileFixture {
	return f.addImport(target, []string{modgraph.NamespaceIdentifier}, false, true)
}

func (f *FileFixture) addImport(target string, identifiers []string, typeOnly, dynamic bool) *FileFixture {
	f.line++
	f.node.AddInternal(modgraph.ImportRecord{
		Specifier:   "./" + target,
		Target:      target,
		Identifiers: identifiers,
		TypeOnly:    typeOnly,
		Dynamic:     dynamic,
		Position:    modgraph.Position{Line: f.line, Column: 1},
	})
	return f
}

// External references external packages.
func (f *FileFixture) External(names ...string) *FileFixture {
	for _, n := range names {
		f.node.AddExternal(n)
	}
	return f
}

// Export adds an original export.
func (f *FileFixture) Export(name string, kind modgraph.SymbolKind) *FileFixture {
	f.line++
	f.node.Exports = append(f.node.Exports, modgraph.ExportRecord{
		Name:     name,
		Kind:     kind,
		Position: modgraph.Position{Line: f.line, Column: 1},
	})
	return f
}

// DefaultExport adds export default.
func (f *FileFixture) DefaultExport(name string, kind modgraph.SymbolKind) *FileFixture {
	f.line++
	f.node.Exports = append(f.node.Exports, modgraph.ExportRecord{
		Name:      name,
		Kind:      kind,
		IsDefault: true,
		Position:  modgraph.Position{Line: f.line, Column: 1},
	})
	return f
}

// ReExport adds export { original as name } from "from", together with the import record
// a front-end emits for the re-export source. original "*" models export * from.
func (f *FileFixture) ReExport(name, from, original string) *FileFixture {
	f.addImport(from, []string{original}, false, false)
	f.node.Exports = append(f.node.Exports, modgraph.ExportRecord{
		Name:         name,
		Kind:         modgraph.KindUnknown,
		IsReExport:   true,
		From:         from,
		OriginalName: original,
		Position:     modgraph.Position{Line: f.line, Column: 1},
	})
	return f
}

// Node exposes the node under construction.
func (f *FileFixture) Node() *modgraph.FileNode {
	return f.node
}
