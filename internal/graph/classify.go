package graph

import (
	"sort"

	"depscope/internal/modgraph"
)

// DefaultMostImportedLimit is used when MostImported is called with a non-positive limit.
const DefaultMostImportedLimit = 10

// ImportCount is a file and the number of files importing it.
type ImportCount struct {
	File            string `json:"file"`
	ImportedByCount int    `json:"importedByCount"`
}

// BarrelFiles returns files the front-end classified as barrels, in graph order.
func BarrelFiles(src modgraph.Source) []string {
	modgraph.MustSource(src)

	out := []string{}
	for _, id := range src.Files() {
		if node, ok := src.Node(id); ok && node.Role == modgraph.RoleBarrel {
			out = append(out, id)
		}
	}
	return out
}

// TypeOnlyFiles returns files with at least one export where every export is either
// a type-level declaration or a re-export.
func TypeOnlyFiles(src modgraph.Source) []string {
	modgraph.MustSource(src)

	out := []string{}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok || len(node.Exports) == 0 {
			continue
		}
		typeOnly := true
		for _, exp := range node.Exports {
			if !exp.Kind.IsTypeKind() && !exp.IsReExport {
				typeOnly = false
				break
			}
		}
		if typeOnly {
			out = append(out, id)
		}
	}
	return out
}

// MostImported returns the files with the most importers, descending, skipping files
// nobody imports. Ties are broken by relative path.
func MostImported(src modgraph.Source, limit int) []ImportCount {
	modgraph.MustSource(src)
	if limit <= 0 {
		limit = DefaultMostImportedLimit
	}

	type entry struct {
		count ImportCount
		rel   string
	}
	entries := make([]entry, 0)
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok || len(node.ImportedBy) == 0 {
			continue
		}
		entries = append(entries, entry{
			count: ImportCount{File: id, ImportedByCount: len(node.ImportedBy)},
			rel:   node.RelPath,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count.ImportedByCount != entries[j].count.ImportedByCount {
			return entries[i].count.ImportedByCount > entries[j].count.ImportedByCount
		}
		return entries[i].rel < entries[j].rel
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]ImportCount, len(entries))
	for i, e := range entries {
		out[i] = e.count
	}
	return out
}
