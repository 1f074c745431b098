// Package deadcode finds unused exports and orphan files from declared import/export relationships.
package deadcode

// UnusedExport is an original export that no other file imports.
type UnusedExport struct {
	// File is the identity of the defining file.
	File string `json:"file"`

	// Export is the exported name.
	Export string `json:"export"`

	// Type is the symbol kind of the export.
	Type string `json:"type"`

	// Line is where the export is declared.
	Line int `json:"line,omitempty"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// FilesAnalyzed is the number of files whose exports were checked.
	FilesAnalyzed int `json:"filesAnalyzed"`

	// ExportsAnalyzed is the number of original exports checked.
	ExportsAnalyzed int `json:"exportsAnalyzed"`

	UnusedCount int `json:"unusedCount"`
	OrphanCount int `json:"orphanCount"`

	// ByKind breaks down unused exports by symbol kind.
	ByKind map[string]int `json:"byKind"`
}

// Options configures the dead code analyzer.
type Options struct {
	// ExcludePatterns are glob patterns (matched against relative paths) to skip.
	ExcludePatterns []string

	// IncludeGenerated reports findings in generated and declaration files.
	IncludeGenerated bool

	// IncludeTests reports findings in test files.
	IncludeTests bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{}
}

// Result is the output of dead code analysis.
type Result struct {
	UnusedExports []UnusedExport `json:"unusedExports"`
	OrphanFiles   []string       `json:"orphanFiles"`
	Summary       Summary        `json:"summary"`
}
