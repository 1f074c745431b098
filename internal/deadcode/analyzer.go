package deadcode

import (
	"log/slog"

	"depscope/internal/modgraph"
)

// Analyzer detects unused exports and orphan files and applies exclusion rules to the findings.
type Analyzer struct {
	exclusions *ExclusionRules
	logger     *slog.Logger
}

// NewAnalyzer creates a new dead code analyzer.
func NewAnalyzer(logger *slog.Logger, excludePatterns []string) *Analyzer {
	rules, invalid := NewExclusionRules(excludePatterns)
	if len(invalid) > 0 {
		logger.Warn("Ignoring invalid exclusion patterns", "patterns", invalid)
	}
	return &Analyzer{
		exclusions: rules,
		logger:     logger,
	}
}

// Analyze runs unused export and orphan detection over the whole graph.
func (a *Analyzer) Analyze(src modgraph.Source, entryPaths []string, opts Options) *Result {
	modgraph.MustSource(src)

	a.logger.Debug("Starting dead code analysis",
		"totalFiles", len(src.Files()),
		"entryPaths", len(entryPaths),
		"excludePatterns", len(a.exclusions.patterns))

	excluded := make(map[string]string)
	filesAnalyzed := 0
	exportsAnalyzed := 0
	for _, id := range src.Files() {
		node, ok := src.Node(id)
		if !ok {
			continue
		}
		if reason := a.exclusions.ShouldExclude(FileInfo{RelPath: node.RelPath, Role: string(node.Role)}, opts); reason != "" {
			excluded[id] = reason
			continue
		}
		filesAnalyzed++
		for _, exp := range node.Exports {
			if !exp.IsReExport {
				exportsAnalyzed++
			}
		}
	}

	skippedUnused := 0
	unused := make([]UnusedExport, 0)
	for _, item := range UnusedExports(src, entryPaths) {
		if _, skip := excluded[item.File]; skip {
			skippedUnused++
			continue
		}
		unused = append(unused, item)
	}

	skippedOrphans := 0
	orphans := make([]string, 0)
	for _, id := range OrphanFiles(src, entryPaths) {
		if _, skip := excluded[id]; skip {
			skippedOrphans++
			continue
		}
		orphans = append(orphans, id)
	}

	a.logger.Debug("Dead code analysis completed",
		"filesAnalyzed", filesAnalyzed,
		"unusedExports", len(unused),
		"orphanFiles", len(orphans),
		"skippedExclusion", len(excluded),
		"skippedUnused", skippedUnused,
		"skippedOrphans", skippedOrphans)

	return &Result{
		UnusedExports: unused,
		OrphanFiles:   orphans,
		Summary:       computeSummary(unused, orphans, filesAnalyzed, exportsAnalyzed),
	}
}

func computeSummary(unused []UnusedExport, orphans []string, files, exports int) Summary {
	s := Summary{
		FilesAnalyzed:   files,
		ExportsAnalyzed: exports,
		UnusedCount:     len(unused),
		OrphanCount:     len(orphans),
		ByKind:          make(map[string]int),
	}
	for _, item := range unused {
		s.ByKind[item.Type]++
	}
	return s
}
