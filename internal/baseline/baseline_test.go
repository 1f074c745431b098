package baseline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depscope/internal/analyzer"
	"depscope/internal/architecture"
	"depscope/internal/deadcode"
	"depscope/internal/deps"
	deperrors "depscope/internal/errors"
	"depscope/internal/paths"
	"depscope/internal/report"
)

func sampleReport() *report.Report {
	return report.Build(&analyzer.Result{
		Package: analyzer.Package{Name: "demo"},
		Dependencies: deps.DependencyAnalysis{
			Unlisted: []string{"is-even", "lodash"},
		},
		Cycles: [][]string{
			{"src/b.ts", "src/a.ts"},
			{"src/x.ts", "src/y.ts", "src/z.ts"},
		},
		DeadCode: &deadcode.Result{
			UnusedExports: []deadcode.UnusedExport{
				{File: "src/a.ts", Export: "helper", Type: "function"},
				{File: "src/b.ts", Export: "other", Type: "const"},
			},
		},
		Architecture: architecture.ArchitectureAnalysis{
			Violations: []architecture.Violation{{From: "src/shared/x.ts", To: "src/ui/y.tsx", FromLayer: "shared", ToLayer: "presentation"}},
		},
	})
}

func TestFromReport(t *testing.T) {
	b := FromReport(sampleReport())

	assert.Equal(t, CurrentVersion, b.Version)
	assert.Equal(t, "demo", b.Package)
	assert.Equal(t, []Cycle{
		{Files: []string{"src/a.ts", "src/b.ts"}},
		{Files: []string{"src/x.ts", "src/y.ts", "src/z.ts"}},
	}, b.Cycles)
	assert.Equal(t, []string{"is-even", "lodash"}, b.Unlisted)
	assert.Equal(t, 7, b.Size())
}

func TestFilter_SuppressesAccepted(t *testing.T) {
	accepted := FromReport(sampleReport())

	res := accepted.Filter(sampleReport())
	assert.Equal(t, 7, res.Suppressed)
	assert.Equal(t, 0, res.Resolved)
	assert.Equal(t, 0, res.Report.Findings())
	assert.Empty(t, res.Report.Structure.Cycles)
	assert.Empty(t, res.Report.DeadCode.UnusedExports)
	assert.Empty(t, res.Report.Architecture.Violations)
	assert.Empty(t, res.Report.Dependencies.Unlisted)
}

func TestFilter_ReportsNewFindings(t *testing.T) {
	b := &Baseline{
		Version:       CurrentVersion,
		Cycles:        []Cycle{{Files: []string{"src/y.ts", "src/z.ts", "src/x.ts"}}},
		UnusedExports: []UnusedExport{{File: "src/a.ts", Export: "helper"}, {File: "src/gone.ts", Export: "old"}},
		Unlisted:      []string{"lodash"},
	}
	in := sampleReport()

	res := b.Filter(in)
	assert.Equal(t, [][]string{{"src/b.ts", "src/a.ts"}}, res.Report.Structure.Cycles)
	assert.Equal(t, []deadcode.UnusedExport{{File: "src/b.ts", Export: "other", Type: "const"}}, res.Report.DeadCode.UnusedExports)
	assert.Len(t, res.Report.Architecture.Violations, 1)
	assert.Equal(t, []string{"is-even"}, res.Report.Dependencies.Unlisted)
	assert.Equal(t, 3, res.Suppressed)
	assert.Equal(t, 1, res.Resolved)
	assert.Equal(t, 4, res.Report.Findings())

	// The input keeps its findings.
	assert.Len(t, in.Structure.Cycles, 2)
	assert.Equal(t, 7, in.Findings())
}

func TestFilter_OmittedSectionsNotResolved(t *testing.T) {
	b := FromReport(sampleReport())
	res := b.Filter(sampleReport().Only(report.SectionStructure))

	assert.Equal(t, 2, res.Suppressed)
	assert.Equal(t, 0, res.Resolved)
	assert.Nil(t, res.Report.DeadCode)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	b := FromReport(sampleReport())

	path, err := b.Save(root)
	require.NoError(t, err)
	assert.Equal(t, paths.BaselinePath(root), path)
	assert.True(t, Exists(root))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, b.Cycles, loaded.Cycles)
	assert.Equal(t, b.UnusedExports, loaded.UnusedExports)
	assert.Equal(t, b.Violations, loaded.Violations)
	assert.Equal(t, b.Unlisted, loaded.Unlisted)
	assert.True(t, b.CreatedAt.Equal(loaded.CreatedAt))
}

func TestLoad_Missing(t *testing.T) {
	root := t.TempDir()
	assert.False(t, Exists(root))

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("cycles = [[["), 0o644))
	_, err := LoadFile(bad)
	assert.True(t, deperrors.Is(err, deperrors.ConfigInvalid))

	future := filepath.Join(dir, "future.toml")
	require.NoError(t, os.WriteFile(future, []byte("version = 99\n"), 0o644))
	_, err = LoadFile(future)
	assert.True(t, deperrors.Is(err, deperrors.ConfigInvalid))
}

func TestCanonicalCycle(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"a"}, []string{"a"}},
		{[]string{"c", "a", "b"}, []string{"a", "b", "c"}},
		{[]string{"b", "c", "a"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := canonicalCycle(tt.in)
		assert.Equal(t, tt.want, got, "canonicalCycle(%v)", tt.in)
	}
}
