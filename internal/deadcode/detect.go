package deadcode

import (
	"depscope/internal/modgraph"
)

// importIndex is the set of identifier names imported from each file anywhere in the graph.
type importIndex struct {
	names map[string]map[string]struct{}

	// all marks files that were namespace-imported: every export counts as used.
	all map[string]bool
}

func buildImportIndex(src modgraph.Source) *importIndex {
	idx := &importIndex{
		names: make(map[string]map[string]struct{}),
		all:   make(map[string]bool),
	}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for target, records := range node.Imports.Internal {
			set, ok := idx.names[target]
			if !ok {
				set = make(map[string]struct{})
				idx.names[target] = set
			}
			for _, rec := range records {
				for _, name := range rec.Identifiers {
					if name == modgraph.NamespaceIdentifier {
						idx.all[target] = true
					}
					set[name] = struct{}{}
				}
			}
		}
	}
	return idx
}

// used reports whether name is imported from file. A default import of the file counts
// for every export since the importer may use any local name for it.
func (idx *importIndex) used(file, name string) bool {
	if idx.all[file] {
		return true
	}
	set := idx.names[file]
	if _, ok := set[name]; ok {
		return true
	}
	_, ok := set[modgraph.DefaultIdentifier]
	return ok
}

func entrySet(entryPaths []string) map[string]bool {
	set := make(map[string]bool, len(entryPaths))
	for _, p := range entryPaths {
		set[p] = true
	}
	return set
}

// UnusedExports returns every original export whose name is never imported, in graph order.
// Entry files (entryPaths or role entry) and barrel files are exempt; re-exports are skipped.
func UnusedExports(src modgraph.Source, entryPaths []string) []UnusedExport {
	modgraph.MustSource(src)

	entries := entrySet(entryPaths)
	idx := buildImportIndex(src)

	out := []UnusedExport{}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok || entries[id] || node.HasRole(modgraph.RoleEntry, modgraph.RoleBarrel) {
			continue
		}
		for _, exp := range node.Exports {
			if exp.IsReExport {
				continue
			}
			if !idx.used(id, exp.Name) {
				out = append(out, UnusedExport{
					File:   id,
					Export: exp.Name,
					Type:   string(exp.Kind),
					Line:   exp.Position.Line,
				})
			}
		}
	}
	return out
}

// OrphanFiles returns files nothing imports that are neither entry points nor entry, test or config files.
func OrphanFiles(src modgraph.Source, entryPaths []string) []string {
	modgraph.MustSource(src)

	entries := entrySet(entryPaths)
	out := []string{}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok || len(node.ImportedBy) > 0 || entries[id] {
			continue
		}
		if node.HasRole(modgraph.RoleEntry, modgraph.RoleTest, modgraph.RoleConfig) {
			continue
		}
		out = append(out, id)
	}
	return out
}
