// Package exportflow traces how exported symbols travel through re-exports to the
// entry points that make them public.
package exportflow

import (
	"sort"

	"depscope/internal/modgraph"
)

// EntryPoint is a graph file exposed by the package manifest.
type EntryPoint struct {
	File string `json:"file"`

	// Subpath is the public subpath ("." for the package root).
	Subpath string `json:"subpath,omitempty"`

	// Conditions are the export-map conditions the file is exposed under.
	Conditions []string `json:"conditions,omitempty"`
}

// ExportFlow is the provenance of one exported symbol.
type ExportFlow struct {
	ExportedName string `json:"exportedName"`
	ExportKind   string `json:"exportKind"`
	DefiningFile string `json:"definingFile"`

	// ReExportChain lists the files that re-export the symbol, in discovery order.
	ReExportChain []string `json:"reExportChain"`

	// PublicFromEntryPoints lists every entry file that exposes the symbol.
	PublicFromEntryPoints []string `json:"publicFromEntryPoints"`

	// Conditions is the sorted union of the reached entry points' conditions.
	Conditions []string `json:"conditions"`
}

// IsPublic reports whether any entry point exposes the symbol.
func (f ExportFlow) IsPublic() bool {
	return len(f.PublicFromEntryPoints) > 0
}

// location is a symbol name as exposed by a file.
type location struct {
	file string
	name string
}

// tracer indexes re-export records by the file they forward from.
type tracer struct {
	entries map[string][]EntryPoint
	order   []string // entry files in first-seen order

	// forwards maps a source file to the re-export records pointing at it.
	forwards map[string][]forward
}

type forward struct {
	file     string
	name     string // name under which file exposes it
	original string // name in the source file, "*" for star re-exports
}

func newTracer(src modgraph.Source, entries []EntryPoint) *tracer {
	t := &tracer{
		entries:  make(map[string][]EntryPoint),
		forwards: make(map[string][]forward),
	}
	for _, e := range entries {
		if _, seen := t.entries[e.File]; !seen {
			t.order = append(t.order, e.File)
		}
		t.entries[e.File] = append(t.entries[e.File], e)
	}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for _, exp := range node.Exports {
			if !exp.IsReExport || exp.From == "" {
				continue
			}
			t.forwards[exp.From] = append(t.forwards[exp.From], forward{
				file:     id,
				name:     exp.Name,
				original: exp.OriginalName,
			})
		}
	}
	return t
}

// nextName is the name a re-export exposes for a symbol called name in its source file,
// or "" when the re-export does not carry it.
func (f forward) nextName(name string) string {
	switch {
	case f.original == modgraph.NamespaceIdentifier && f.name == modgraph.NamespaceIdentifier:
		// export * from: same name, but never the default export.
		if name == modgraph.DefaultIdentifier {
			return ""
		}
		return name
	case f.original == modgraph.NamespaceIdentifier:
		// export * as ns from: the symbol travels inside ns.
		return f.name
	case f.original == name:
		return f.name
	default:
		return ""
	}
}

// trace walks re-exports breadth-first from (file, name).
func (t *tracer) trace(file string, exp modgraph.ExportRecord) ExportFlow {
	name := exp.Name
	if exp.IsDefault {
		name = modgraph.DefaultIdentifier
	}

	flow := ExportFlow{
		ExportedName:          exp.Name,
		ExportKind:            string(exp.Kind),
		DefiningFile:          file,
		ReExportChain:         []string{},
		PublicFromEntryPoints: []string{},
		Conditions:            []string{},
	}

	reached := make(map[string]bool)
	inChain := make(map[string]bool)
	visited := map[location]bool{{file: file, name: name}: true}
	queue := []location{{file: file, name: name}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, ok := t.entries[cur.file]; ok {
			reached[cur.file] = true
		}

		for _, f := range t.forwards[cur.file] {
			next := f.nextName(cur.name)
			if next == "" {
				continue
			}
			loc := location{file: f.file, name: next}
			if visited[loc] {
				continue
			}
			visited[loc] = true
			if !inChain[f.file] && f.file != file {
				inChain[f.file] = true
				flow.ReExportChain = append(flow.ReExportChain, f.file)
			}
			queue = append(queue, loc)
		}
	}

	conditions := make(map[string]bool)
	for _, entry := range t.order {
		if !reached[entry] {
			continue
		}
		flow.PublicFromEntryPoints = append(flow.PublicFromEntryPoints, entry)
		for _, e := range t.entries[entry] {
			for _, c := range e.Conditions {
				conditions[c] = true
			}
		}
	}
	for c := range conditions {
		flow.Conditions = append(flow.Conditions, c)
	}
	sort.Strings(flow.Conditions)
	return flow
}

// Trace computes a flow for every original export of every file, in graph order.
// Exports no entry point reaches are included with empty public lists.
func Trace(src modgraph.Source, entries []EntryPoint) []ExportFlow {
	modgraph.MustSource(src)

	t := newTracer(src, entries)
	flows := []ExportFlow{}
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		for _, exp := range node.Exports {
			if exp.IsReExport {
				continue
			}
			flows = append(flows, t.trace(id, exp))
		}
	}
	return flows
}

// TraceExport computes the flow of a single export defined in file.
func TraceExport(src modgraph.Source, entries []EntryPoint, file, name string) (ExportFlow, bool) {
	modgraph.MustSource(src)

	node, ok := src.Node(file)
	if !ok {
		return ExportFlow{}, false
	}
	for _, exp := range node.Exports {
		if exp.IsReExport || exp.Name != name {
			continue
		}
		return newTracer(src, entries).trace(file, exp), true
	}
	return ExportFlow{}, false
}

// ByName keys flows by exported name. When names collide a public flow replaces an
// internal one; otherwise the first flow in order is kept.
func ByName(flows []ExportFlow) map[string]ExportFlow {
	out := make(map[string]ExportFlow, len(flows))
	for _, f := range flows {
		existing, ok := out[f.ExportedName]
		if !ok || (!existing.IsPublic() && f.IsPublic()) {
			out[f.ExportedName] = f
		}
	}
	return out
}
