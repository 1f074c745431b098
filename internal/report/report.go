// Package report turns an analysis result into a stable document and renders it.
package report

import (
	"fmt"
	"time"

	"depscope/internal/analyzer"
	"depscope/internal/architecture"
	"depscope/internal/deadcode"
	"depscope/internal/deps"
	"depscope/internal/exportflow"
	"depscope/internal/graph"
	"depscope/internal/scan"
	"depscope/internal/version"
)

// Section names a part of the report that can be rendered on its own.
type Section string

const (
	SectionDependencies Section = "dependencies"
	SectionStructure    Section = "structure"
	SectionUnused       Section = "unused"
	SectionArchitecture Section = "architecture"
	SectionFlows        Section = "flows"
	SectionKeyFiles     Section = "keyFiles"
)

// AllSections lists every section in rendering order.
var AllSections = []Section{
	SectionDependencies,
	SectionStructure,
	SectionUnused,
	SectionArchitecture,
	SectionFlows,
	SectionKeyFiles,
}

// Report is the serializable outcome of one run. Nil sections are omitted from every format.
type Report struct {
	Tool        string           `json:"tool"`
	Version     string           `json:"version"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Package     analyzer.Package `json:"package"`
	Summary     Summary          `json:"summary"`

	Entries  []exportflow.EntryPoint `json:"entries"`
	Unmapped []string                `json:"unmappedEntries,omitempty"`
	Skipped  []scan.SkippedFile      `json:"skipped,omitempty"`

	Dependencies *Dependencies                      `json:"dependencies,omitempty"`
	Structure    *Structure                         `json:"structure,omitempty"`
	DeadCode     *deadcode.Result                   `json:"deadCode,omitempty"`
	Architecture *architecture.ArchitectureAnalysis `json:"architecture,omitempty"`
	Flows        *Flows                             `json:"flows,omitempty"`
	KeyFiles     *graph.RankOutput                  `json:"keyFiles,omitempty"`
}

// Summary holds the headline counts of a report.
type Summary struct {
	Files            int   `json:"files"`
	InternalEdges    int   `json:"internalEdges"`
	ExternalPackages int   `json:"externalPackages"`
	Entries          int   `json:"entries"`
	Cycles           int   `json:"cycles"`
	UnusedExports    int   `json:"unusedExports"`
	OrphanFiles      int   `json:"orphanFiles"`
	UnusedDeps       int   `json:"unusedDependencies"`
	UnlistedDeps     int   `json:"unlistedDependencies"`
	MisplacedDeps    int   `json:"misplacedDependencies"`
	Violations       int   `json:"violations"`
	PublicExports    int   `json:"publicExports"`
	Skipped          int   `json:"skipped"`
	DurationMs       int64 `json:"durationMs"`
}

// Dependencies is the declared-versus-used comparison plus per-package usage.
type Dependencies struct {
	deps.DependencyAnalysis
	External []deps.ExternalDependency `json:"external"`
	Edges    []deps.DependencyEdge     `json:"edges"`
}

// Structure groups the graph-shape findings.
type Structure struct {
	Cycles       [][]string          `json:"cycles"`
	Barrels      []string            `json:"barrels"`
	TypeOnly     []string            `json:"typeOnly"`
	MostImported []graph.ImportCount `json:"mostImported"`
}

// Flows lists export provenance.
type Flows struct {
	Exports []exportflow.ExportFlow `json:"exports"`
}

// Build converts an analysis result into a report with every section present.
func Build(r *analyzer.Result) *Report {
	rep := &Report{
		Tool:        "depscope",
		Version:     version.Info(),
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Package:     r.Package,
		Dependencies: &Dependencies{
			DependencyAnalysis: r.Dependencies,
			External:           r.External,
			Edges:              r.Edges,
		},
		Structure: &Structure{
			Cycles:       r.Cycles,
			Barrels:      r.Barrels,
			TypeOnly:     r.TypeOnly,
			MostImported: r.MostImported,
		},
		DeadCode:     r.DeadCode,
		Architecture: &r.Architecture,
		Flows:        &Flows{Exports: r.Flows},
		KeyFiles:     r.KeyFiles,
	}
	if r.Scan != nil {
		rep.Entries = r.Scan.Entries.Points
		rep.Unmapped = r.Scan.Entries.Unmapped
		rep.Skipped = r.Scan.Skipped
	}
	if r.Graph != nil {
		rep.Summary.Files = r.Graph.Len()
	}
	rep.Summary.DurationMs = r.Duration.Milliseconds()
	rep.Summarize()
	return rep
}

// Summarize recomputes the finding counts from the sections present.
// Files and DurationMs describe the run and are left untouched.
func (r *Report) Summarize() {
	s := Summary{Files: r.Summary.Files, DurationMs: r.Summary.DurationMs}
	s.Entries = len(r.Entries)
	s.Skipped = len(r.Skipped)
	if d := r.Dependencies; d != nil {
		s.InternalEdges = len(d.Edges)
		s.ExternalPackages = len(d.External)
		s.UnusedDeps = len(d.Unused)
		s.UnlistedDeps = len(d.Unlisted)
		s.MisplacedDeps = len(d.Misplaced)
	}
	if r.Structure != nil {
		s.Cycles = len(r.Structure.Cycles)
	}
	if r.DeadCode != nil {
		s.UnusedExports = len(r.DeadCode.UnusedExports)
		s.OrphanFiles = len(r.DeadCode.OrphanFiles)
	}
	if r.Architecture != nil {
		s.Violations = len(r.Architecture.Violations)
	}
	if r.Flows != nil {
		for _, f := range r.Flows.Exports {
			if f.IsPublic() {
				s.PublicExports++
			}
		}
	}
	r.Summary = s
}

// Findings counts the problems a CI gate fails on: cycles, unused exports, layer violations and
// unlisted dependencies.
func (r *Report) Findings() int {
	return r.Summary.Cycles + r.Summary.UnusedExports + r.Summary.Violations + r.Summary.UnlistedDeps
}

// Only returns a shallow copy of the report keeping just the named sections.
// The summary still describes the whole run.
func (r *Report) Only(sections ...Section) *Report {
	keep := make(map[Section]bool, len(sections))
	for _, s := range sections {
		keep[s] = true
	}
	out := *r
	if !keep[SectionDependencies] {
		out.Dependencies = nil
	}
	if !keep[SectionStructure] {
		out.Structure = nil
	}
	if !keep[SectionUnused] {
		out.DeadCode = nil
	}
	if !keep[SectionArchitecture] {
		out.Architecture = nil
	}
	if !keep[SectionFlows] {
		out.Flows = nil
	}
	if !keep[SectionKeyFiles] {
		out.KeyFiles = nil
	}
	return &out
}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	for _, sec := range AllSections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown report section: %s", s)
}
