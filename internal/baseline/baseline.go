// Package baseline records accepted findings so that only new ones are reported.
package baseline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"depscope/internal/architecture"
	"depscope/internal/deadcode"
	deperrors "depscope/internal/errors"
	"depscope/internal/paths"
	"depscope/internal/report"
)

// CurrentVersion is the baseline file format version.
const CurrentVersion = 1

// Baseline is the set of accepted findings stored in .depscope/baseline.toml.
type Baseline struct {
	Version   int       `toml:"version" json:"version"`
	Package   string    `toml:"package,omitempty" json:"package,omitempty"`
	CreatedAt time.Time `toml:"created_at" json:"createdAt"`

	Cycles        []Cycle        `toml:"cycles,omitempty" json:"cycles"`
	UnusedExports []UnusedExport `toml:"unused_exports,omitempty" json:"unusedExports"`
	Violations    []Violation    `toml:"violations,omitempty" json:"violations"`
	Unlisted      []string       `toml:"unlisted_dependencies,omitempty" json:"unlistedDependencies"`
}

// Cycle is an accepted circular import.
type Cycle struct {
	Files []string `toml:"files" json:"files"`
}

// UnusedExport is an accepted unused export.
type UnusedExport struct {
	File   string `toml:"file" json:"file"`
	Export string `toml:"export" json:"export"`
}

// Violation is an accepted cross-layer import.
type Violation struct {
	From string `toml:"from" json:"from"`
	To   string `toml:"to" json:"to"`
}

// FromReport captures every finding of a report.
func FromReport(r *report.Report) *Baseline {
	b := &Baseline{
		Version:   CurrentVersion,
		Package:   r.Package.Name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if r.Structure != nil {
		for _, c := range r.Structure.Cycles {
			b.Cycles = append(b.Cycles, Cycle{Files: canonicalCycle(c)})
		}
	}
	if r.DeadCode != nil {
		for _, u := range r.DeadCode.UnusedExports {
			b.UnusedExports = append(b.UnusedExports, UnusedExport{File: u.File, Export: u.Export})
		}
	}
	if r.Architecture != nil {
		for _, v := range r.Architecture.Violations {
			b.Violations = append(b.Violations, Violation{From: v.From, To: v.To})
		}
	}
	if r.Dependencies != nil {
		b.Unlisted = append(b.Unlisted, r.Dependencies.Unlisted...)
	}
	b.sort()
	return b
}

func (b *Baseline) sort() {
	sort.Slice(b.Cycles, func(i, j int) bool {
		return cycleKey(b.Cycles[i].Files) < cycleKey(b.Cycles[j].Files)
	})
	sort.Slice(b.UnusedExports, func(i, j int) bool {
		if b.UnusedExports[i].File != b.UnusedExports[j].File {
			return b.UnusedExports[i].File < b.UnusedExports[j].File
		}
		return b.UnusedExports[i].Export < b.UnusedExports[j].Export
	})
	sort.Slice(b.Violations, func(i, j int) bool {
		if b.Violations[i].From != b.Violations[j].From {
			return b.Violations[i].From < b.Violations[j].From
		}
		return b.Violations[i].To < b.Violations[j].To
	})
	sort.Strings(b.Unlisted)
}

// Size is the number of accepted findings.
func (b *Baseline) Size() int {
	return len(b.Cycles) + len(b.UnusedExports) + len(b.Violations) + len(b.Unlisted)
}

// Load reads the baseline of the repository at repoRoot. A missing file yields an error
// matching fs.ErrNotExist.
func Load(repoRoot string) (*Baseline, error) {
	return LoadFile(paths.BaselinePath(repoRoot))
}

// LoadFile reads a baseline from an explicit path.
func LoadFile(path string) (*Baseline, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	var b Baseline
	if _, err := toml.DecodeFile(path, &b); err != nil {
		return nil, deperrors.New(deperrors.ConfigInvalid, "failed to parse baseline "+path, err)
	}
	if b.Version > CurrentVersion {
		return nil, deperrors.Newf(deperrors.ConfigInvalid, "baseline %s has unsupported version %d", path, b.Version)
	}
	return &b, nil
}

// Exists reports whether the repository has a baseline file.
func Exists(repoRoot string) bool {
	_, err := os.Stat(paths.BaselinePath(repoRoot))
	return !errors.Is(err, fs.ErrNotExist)
}

// Save writes the baseline into the repository's data directory and returns the file path.
func (b *Baseline) Save(repoRoot string) (string, error) {
	if _, err := paths.EnsureDataDir(repoRoot); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	path := paths.BaselinePath(repoRoot)
	return path, b.SaveFile(path)
}

// SaveFile writes the baseline to an explicit path.
func (b *Baseline) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create baseline file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("failed to encode baseline: %w", err)
	}
	return f.Close()
}

// FilterResult is a report with accepted findings removed.
type FilterResult struct {
	Report *report.Report

	// Suppressed counts findings present in both the report and the baseline.
	Suppressed int

	// Resolved counts baseline entries the report no longer contains. Entries for sections the
	// report omits are not counted.
	Resolved int
}

// Filter removes the accepted findings from a report. The input report is not modified.
func (b *Baseline) Filter(r *report.Report) FilterResult {
	out := *r
	res := FilterResult{Report: &out}
	matched, considered := 0, 0

	if r.Structure != nil {
		considered += len(b.Cycles)
		accepted := make(map[string]bool, len(b.Cycles))
		for _, c := range b.Cycles {
			accepted[cycleKey(c.Files)] = true
		}
		st := *r.Structure
		st.Cycles = [][]string{}
		for _, c := range r.Structure.Cycles {
			if accepted[cycleKey(c)] {
				matched++
				continue
			}
			st.Cycles = append(st.Cycles, c)
		}
		out.Structure = &st
	}

	if r.DeadCode != nil {
		considered += len(b.UnusedExports)
		accepted := make(map[UnusedExport]bool, len(b.UnusedExports))
		for _, u := range b.UnusedExports {
			accepted[u] = true
		}
		dc := *r.DeadCode
		dc.UnusedExports = []deadcode.UnusedExport{}
		for _, u := range r.DeadCode.UnusedExports {
			if accepted[UnusedExport{File: u.File, Export: u.Export}] {
				matched++
				continue
			}
			dc.UnusedExports = append(dc.UnusedExports, u)
		}
		dc.Summary.UnusedCount = len(dc.UnusedExports)
		out.DeadCode = &dc
	}

	if r.Architecture != nil {
		considered += len(b.Violations)
		accepted := make(map[Violation]bool, len(b.Violations))
		for _, v := range b.Violations {
			accepted[v] = true
		}
		arch := *r.Architecture
		arch.Violations = []architecture.Violation{}
		for _, v := range r.Architecture.Violations {
			if accepted[Violation{From: v.From, To: v.To}] {
				matched++
				continue
			}
			arch.Violations = append(arch.Violations, v)
		}
		out.Architecture = &arch
	}

	if r.Dependencies != nil {
		considered += len(b.Unlisted)
		accepted := make(map[string]bool, len(b.Unlisted))
		for _, name := range b.Unlisted {
			accepted[name] = true
		}
		d := *r.Dependencies
		d.Unlisted = []string{}
		for _, name := range r.Dependencies.Unlisted {
			if accepted[name] {
				matched++
				continue
			}
			d.Unlisted = append(d.Unlisted, name)
		}
		out.Dependencies = &d
	}

	res.Suppressed = matched
	res.Resolved = considered - matched
	out.Summarize()
	return res
}

// canonicalCycle rotates a cycle to start at its smallest file, so that the same cycle found
// from a different DFS root compares equal.
func canonicalCycle(files []string) []string {
	if len(files) == 0 {
		return []string{}
	}
	start := 0
	for i, f := range files {
		if f < files[start] {
			start = i
		}
	}
	out := make([]string, 0, len(files))
	out = append(out, files[start:]...)
	return append(out, files[:start]...)
}

func cycleKey(files []string) string {
	return strings.Join(canonicalCycle(files), " -> ")
}
