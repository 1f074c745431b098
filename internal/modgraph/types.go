// Package modgraph holds the in-memory module graph: one FileNode per source file,
// cross-referenced by file identity rather than by pointer.
package modgraph

import "sort"

// Role classifies what a file is for. It is assigned by the front-end that builds the graph.
type Role string

const (
	RoleEntry     Role = "entry"
	RoleConfig    Role = "config"
	RoleTest      Role = "test"
	RoleUtil      Role = "util"
	RoleComponent Role = "component"
	RoleService   Role = "service"
	RoleType      Role = "type"
	RoleBarrel    Role = "barrel"
	RoleUnknown   Role = "unknown"
)

// SymbolKind is the declaration kind of an exported symbol.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindVariable  SymbolKind = "variable"
	KindConst     SymbolKind = "const"
	KindType      SymbolKind = "type"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindNamespace SymbolKind = "namespace"
	KindUnknown   SymbolKind = "unknown"
)

// IsTypeKind reports whether the kind only exists at the type level.
func (k SymbolKind) IsTypeKind() bool {
	return k == KindType || k == KindInterface
}

const (
	// NamespaceIdentifier marks an import of every export of the target
	// (import * as X, export * from, require() without destructuring).
	NamespaceIdentifier = "*"

	// DefaultIdentifier marks a default import.
	DefaultIdentifier = "default"
)

// Position is a 1-based source location.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ImportRecord is one import statement (or re-export source) resolved to an internal file.
type ImportRecord struct {
	// Specifier is the module specifier as written ("./utils", "../lib/index.js").
	Specifier string `json:"specifier"`

	// Target is the resolved file identity.
	Target string `json:"target"`

	// Identifiers are the names imported from Target. "*" means all of them.
	Identifiers []string `json:"identifiers,omitempty"`

	TypeOnly bool     `json:"typeOnly,omitempty"`
	Dynamic  bool     `json:"dynamic,omitempty"`
	Position Position `json:"position"`
}

// IsNamespace reports whether the record imports every export of its target.
func (r ImportRecord) IsNamespace() bool {
	for _, id := range r.Identifiers {
		if id == NamespaceIdentifier {
			return true
		}
	}
	return false
}

// ExportRecord is one exported name of a file.
type ExportRecord struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	IsDefault  bool       `json:"isDefault,omitempty"`
	IsReExport bool       `json:"isReExport,omitempty"`

	// From is the resolved file a re-export forwards from (empty for external or unresolved sources).
	From string `json:"from,omitempty"`

	// OriginalName is the name inside From; "*" for export * from.
	OriginalName string `json:"originalName,omitempty"`

	// Members lists the members of aggregate types (interfaces, enums, classes).
	Members []string `json:"members,omitempty"`

	Doc       string   `json:"doc,omitempty"`
	Signature string   `json:"signature,omitempty"`
	Position  Position `json:"position"`
}

// Imports groups a file's import facts.
type Imports struct {
	// Internal maps a resolved internal file identity to every import record targeting it.
	Internal map[string][]ImportRecord `json:"internal"`

	// External is the set of external package names.
	External map[string]struct{} `json:"-"`

	// Unresolved lists specifiers that could not be resolved.
	Unresolved []string `json:"unresolved,omitempty"`
}

// FileNode is the per-file record of the module graph.
type FileNode struct {
	Path    string         `json:"path"`
	RelPath string         `json:"relPath"`
	Imports Imports        `json:"imports"`
	Exports []ExportRecord `json:"exports"`

	// ImportedBy is the inverse of every other file's Imports.Internal keys.
	// It is a back-reference only and is filled in by Builder.Build.
	ImportedBy []string `json:"importedBy"`

	Role Role `json:"role"`
}

// NewFileNode returns a node with empty, non-nil import containers.
func NewFileNode(path, relPath string, role Role) *FileNode {
	return &FileNode{
		Path:    path,
		RelPath: relPath,
		Imports: Imports{
			Internal: make(map[string][]ImportRecord),
			External: make(map[string]struct{}),
		},
		Role: role,
	}
}

// AddInternal appends an import record for its target.
func (n *FileNode) AddInternal(rec ImportRecord) {
	if n.Imports.Internal == nil {
		n.Imports.Internal = make(map[string][]ImportRecord)
	}
	n.Imports.Internal[rec.Target] = append(n.Imports.Internal[rec.Target], rec)
}

// AddExternal records a reference to an external package.
func (n *FileNode) AddExternal(name string) {
	if n.Imports.External == nil {
		n.Imports.External = make(map[string]struct{})
	}
	n.Imports.External[name] = struct{}{}
}

// InternalTargets returns the internally imported file identities in lexicographic order.
func (n *FileNode) InternalTargets() []string {
	targets := make([]string, 0, len(n.Imports.Internal))
	for t := range n.Imports.Internal {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// ExternalNames returns the referenced external package names in lexicographic order.
func (n *FileNode) ExternalNames() []string {
	names := make([]string, 0, len(n.Imports.External))
	for name := range n.Imports.External {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasRole reports whether the node's role is one of roles.
func (n *FileNode) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if n.Role == r {
			return true
		}
	}
	return false
}
