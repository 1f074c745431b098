package deadcode

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// ExclusionRules determines which files are left out of dead code reports.
type ExclusionRules struct {
	patterns []string
	globs    []glob.Glob
}

// NewExclusionRules creates exclusion rules with the given glob patterns.
// Patterns that do not compile are ignored and returned as invalid.
func NewExclusionRules(patterns []string) (*ExclusionRules, []string) {
	r := &ExclusionRules{}
	var invalid []string
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			invalid = append(invalid, p)
			continue
		}
		r.patterns = append(r.patterns, p)
		r.globs = append(r.globs, g)
	}
	return r, invalid
}

// FileInfo contains information about a file for exclusion checking.
type FileInfo struct {
	RelPath string
	Role    string
}

// ShouldExclude returns a reason if the file should be excluded, or empty string if not.
func (r *ExclusionRules) ShouldExclude(f FileInfo, opts Options) string {
	if !opts.IncludeGenerated {
		if isDeclarationFile(f.RelPath) {
			return "declaration file"
		}
		if isGeneratedFile(f.RelPath) {
			return "generated file"
		}
	}

	if !opts.IncludeTests && (f.Role == "test" || IsTestFile(f.RelPath)) {
		return "test file"
	}

	for i, g := range r.globs {
		if g.Match(f.RelPath) {
			return "matches exclusion pattern: " + r.patterns[i]
		}
	}
	return ""
}

// isDeclarationFile checks for TypeScript ambient declaration files.
func isDeclarationFile(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".d.ts") ||
		strings.HasSuffix(lower, ".d.mts") ||
		strings.HasSuffix(lower, ".d.cts")
}

// isGeneratedFile checks if a file is likely generated.
func isGeneratedFile(p string) bool {
	generatedPatterns := []string{
		".generated.",
		".gen.",
		"__generated__/",
		"generated/",
		".min.js",
		"_pb.js",
		"_pb.d.ts",
		".pb.ts",
		"graphql.ts",
		"mocks/",
		"__mocks__/",
	}

	lower := strings.ToLower(p)
	for _, pattern := range generatedPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsTestFile checks if a file path is a test file.
func IsTestFile(p string) bool {
	base := path.Base(p)
	for _, marker := range []string{".test.", ".spec.", ".e2e.", ".stories."} {
		if strings.Contains(base, marker) {
			return true
		}
	}

	p = "/" + p
	return strings.Contains(p, "/test/") ||
		strings.Contains(p, "/tests/") ||
		strings.Contains(p, "/__tests__/") ||
		strings.Contains(p, "/e2e/")
}
