// Package parser extracts raw import and export facts from JavaScript and TypeScript
// source files. Specifiers are left unresolved; resolution happens in the scanner.
package parser

import (
	"path/filepath"
	"strings"

	"depscope/internal/modgraph"
)

// Language identifies a grammar.
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// LanguageFromPath returns the grammar for a file path based on its extension.
func LanguageFromPath(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	default:
		return "", false
	}
}

// Import is one import statement, re-export source, dynamic import or require call.
type Import struct {
	// Specifier is the module specifier as written.
	Specifier string `json:"specifier"`

	// Identifiers are the names taken from the module: "default", "*" or export names.
	// A side-effect import (import "./x") has none.
	Identifiers []string `json:"identifiers"`

	TypeOnly bool `json:"typeOnly,omitempty"`
	Dynamic  bool `json:"dynamic,omitempty"`

	// ReExport marks the implicit import of an export ... from statement.
	ReExport bool              `json:"reExport,omitempty"`
	Position modgraph.Position `json:"position"`
}

// Export is one exported name.
type Export struct {
	Name      string              `json:"name"`
	Kind      modgraph.SymbolKind `json:"kind"`
	IsDefault bool                `json:"isDefault,omitempty"`

	// IsReExport marks names forwarded from another module, either with export ... from
	// or by exporting an imported binding.
	IsReExport bool `json:"isReExport,omitempty"`

	// Source is the specifier a re-export forwards from.
	Source string `json:"source,omitempty"`

	// OriginalName is the name inside Source; "*" for namespace forwarding.
	OriginalName string `json:"originalName,omitempty"`

	TypeOnly  bool              `json:"typeOnly,omitempty"`
	Members   []string          `json:"members,omitempty"`
	Doc       string            `json:"doc,omitempty"`
	Signature string            `json:"signature,omitempty"`
	Position  modgraph.Position `json:"position"`
}

// FileFacts are the raw facts of one file.
type FileFacts struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	Imports  []Import `json:"imports"`
	Exports  []Export `json:"exports"`

	// HasErrors is set when the grammar reported syntax errors; facts are best effort.
	HasErrors bool `json:"hasErrors,omitempty"`
}

// ReExportsOnly reports whether every export forwards from another module.
func (f *FileFacts) ReExportsOnly() bool {
	if len(f.Exports) == 0 {
		return false
	}
	for _, e := range f.Exports {
		if !e.IsReExport {
			return false
		}
	}
	return true
}
