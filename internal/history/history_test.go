package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depscope/internal/analyzer"
	"depscope/internal/deadcode"
	"depscope/internal/deps"
	deperrors "depscope/internal/errors"
	"depscope/internal/paths"
	"depscope/internal/report"
	"depscope/internal/slogutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slogutil.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func sampleReport(cycles int) *report.Report {
	r := &analyzer.Result{
		Package:      analyzer.Package{Name: "demo", Version: "1.0.0"},
		Dependencies: deps.DependencyAnalysis{Unlisted: []string{"is-even"}},
		DeadCode: &deadcode.Result{
			UnusedExports: []deadcode.UnusedExport{{File: "src/a.ts", Export: "helper", Type: "function"}},
		},
		Duration: 250 * time.Millisecond,
	}
	for i := 0; i < cycles; i++ {
		r.Cycles = append(r.Cycles, []string{"src/a.ts", "src/b.ts"})
	}
	return report.Build(r)
}

func TestRecordAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.Record(ctx, sampleReport(1))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "demo", run.Package)
	assert.Equal(t, 3, run.Findings)
	assert.Equal(t, 1, run.Cycles)
	assert.Equal(t, int64(250), run.DurationMs)
	assert.Positive(t, run.ReportBytes)

	got, rep, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, *run, *got)
	assert.Equal(t, "demo", rep.Package.Name)
	assert.Equal(t, [][]string{{"src/a.ts", "src/b.ts"}}, rep.Structure.Cycles)
	assert.Equal(t, []string{"is-even"}, rep.Dependencies.Unlisted)
	assert.Equal(t, 3, rep.Findings())
}

func TestGet_NotFound(t *testing.T) {
	s := openStore(t)

	_, _, err := s.Get(context.Background(), "nope")
	assert.True(t, deperrors.Is(err, deperrors.RunNotFound))

	_, _, err = s.Latest(context.Background())
	assert.True(t, deperrors.Is(err, deperrors.RunNotFound))
}

func TestListLatestPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.Record(ctx, sampleReport(i))
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, rep, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)
	assert.Len(t, rep.Structure.Cycles, 2)

	removed, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	runs, err = s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[2], runs[0].ID)
}

func TestList_Empty(t *testing.T) {
	runs, err := openStore(t).List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestOpen_UsesDataDir(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, paths.HistoryPath(root), s.db.Path())
}

func TestCompare(t *testing.T) {
	from := Run{ID: "a", Files: 10, Findings: 3, Cycles: 1, UnusedExports: 2}
	to := Run{ID: "b", Files: 12, Findings: 5, Cycles: 2, UnusedExports: 2, Violations: 1}

	d := Compare(from, to)
	assert.Equal(t, Delta{From: "a", To: "b", Files: 2, Findings: 2, Cycles: 1, Violations: 1}, d)
	assert.True(t, d.Regressed())
	assert.False(t, Compare(to, from).Regressed())
}
