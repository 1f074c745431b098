package deadcode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"depscope/internal/modgraph"
	"depscope/internal/slogutil"
	"depscope/internal/testutil"
)

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"src/components/Button.test.ts", true},
		{"src/utils/helper.spec.js", true},
		{"src/components/Button.test.tsx", true},
		{"src/components/Button.stories.tsx", true},
		{"src/__tests__/Button.tsx", true},
		{"test/setup.ts", true},
		{"packages/core/tests/unit.ts", true},
		{"src/components/Button.tsx", false},
		{"src/testing/helpers.ts", false},
		{"docs/testing.md", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := IsTestFile(tc.path); got != tc.expected {
				t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, got, tc.expected)
			}
		})
	}
}

func TestIsGeneratedFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"src/api/client.generated.ts", true},
		{"src/__generated__/schema.ts", true},
		{"vendor/lib.min.js", true},
		{"src/__mocks__/fs.ts", true},
		{"src/api/client.ts", false},
	}

	for _, tc := range tests {
		if got := isGeneratedFile(tc.path); got != tc.expected {
			t.Errorf("isGeneratedFile(%q) = %v, want %v", tc.path, got, tc.expected)
		}
	}
}

func TestUnusedExports(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry).
		Import("src/math.ts", "add").
		Export("run", modgraph.KindFunction)
	g.File("src/math.ts", modgraph.RoleUtil).
		Export("add", modgraph.KindFunction).
		Export("foo", modgraph.KindFunction).
		Export("Vector", modgraph.KindInterface)
	g.File("src/lib/index.ts", modgraph.RoleBarrel).
		Export("unusedInBarrel", modgraph.KindConst)

	got := UnusedExports(g.Build(), []string{"src/index.ts"})
	assert.Equal(t, []UnusedExport{
		{File: "src/math.ts", Export: "foo", Type: "function", Line: 2},
		{File: "src/math.ts", Export: "Vector", Type: "interface", Line: 3},
	}, got)
}

func TestUnusedExports_NamespaceImport(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry)
	g.File("src/math.ts", modgraph.RoleUtil).Export("foo", modgraph.KindFunction)
	graph := g.Build()

	assert.Len(t, UnusedExports(graph, []string{"src/index.ts"}), 1)

	g = testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry).ImportAll("src/math.ts")
	g.File("src/math.ts", modgraph.RoleUtil).Export("foo", modgraph.KindFunction)

	assert.Empty(t, UnusedExports(g.Build(), []string{"src/index.ts"}))
}

func TestUnusedExports_DefaultMatching(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry).Import("src/button.ts", "default")
	g.File("src/button.ts", modgraph.RoleComponent).
		DefaultExport("Button", modgraph.KindFunction).
		Export("size", modgraph.KindConst)

	assert.Empty(t, UnusedExports(g.Build(), nil))
}

func TestUnusedExports_SkipsReExportsAndEntries(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/public.ts", modgraph.RoleUtil).
		ReExport("thing", "src/impl.ts", "thing").
		Export("own", modgraph.KindConst)
	g.File("src/impl.ts", modgraph.RoleUtil).Export("thing", modgraph.KindFunction)

	got := UnusedExports(g.Build(), []string{"src/public.ts"})
	assert.Empty(t, got)
}

func TestUnusedExports_DynamicImportCountsAsNamespace(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry).DynamicImport("src/lazy.ts")
	g.File("src/lazy.ts", modgraph.RoleComponent).Export("Page", modgraph.KindFunction)

	assert.Empty(t, UnusedExports(g.Build(), nil))
}

func TestOrphanFiles(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/main.ts", modgraph.RoleUtil).Import("src/used.ts", "x")
	g.File("src/used.ts", modgraph.RoleUtil)
	g.File("src/lonely.ts", modgraph.RoleUtil)
	g.File("src/app.ts", modgraph.RoleEntry)
	g.File("src/app.test.ts", modgraph.RoleTest)
	g.File("vite.config.ts", modgraph.RoleConfig)
	g.File("src/forgotten.tsx", modgraph.RoleComponent)

	got := OrphanFiles(g.Build(), []string{"src/main.ts"})
	assert.Equal(t, []string{"src/lonely.ts", "src/forgotten.tsx"}, got)
}

func TestAnalyzer_Exclusions(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/index.ts", modgraph.RoleEntry)
	g.File("src/math.ts", modgraph.RoleUtil).Export("foo", modgraph.KindFunction)
	g.File("src/legacy/old.ts", modgraph.RoleUtil).Export("old", modgraph.KindFunction)
	g.File("src/types.d.ts", modgraph.RoleType).Export("Global", modgraph.KindInterface)
	graph := g.Build()

	a := NewAnalyzer(slogutil.NewDiscardLogger(), []string{"src/legacy/**"})
	result := a.Analyze(graph, []string{"src/index.ts"}, DefaultOptions())

	assert.Equal(t, []UnusedExport{{File: "src/math.ts", Export: "foo", Type: "function", Line: 1}}, result.UnusedExports)
	assert.Equal(t, []string{"src/math.ts"}, result.OrphanFiles)
	assert.Equal(t, 1, result.Summary.UnusedCount)
	assert.Equal(t, 1, result.Summary.OrphanCount)
	assert.Equal(t, 2, result.Summary.FilesAnalyzed)
	assert.Equal(t, map[string]int{"function": 1}, result.Summary.ByKind)

	withGenerated := DefaultOptions()
	withGenerated.IncludeGenerated = true
	result = a.Analyze(graph, []string{"src/index.ts"}, withGenerated)
	assert.Len(t, result.UnusedExports, 2)
}

func TestNewExclusionRules_Invalid(t *testing.T) {
	rules, invalid := NewExclusionRules([]string{"src/[", "dist/**"})
	assert.Equal(t, []string{"src/["}, invalid)
	assert.Equal(t, "matches exclusion pattern: dist/**",
		rules.ShouldExclude(FileInfo{RelPath: "dist/a/b.js"}, Options{IncludeGenerated: true}))
}

func TestUnusedExports_Idempotent(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("a.ts", modgraph.RoleUtil).Export("x", modgraph.KindConst).Export("y", modgraph.KindConst)
	g.File("b.ts", modgraph.RoleUtil).Import("a.ts", "x")
	graph := g.Build()

	assert.Equal(t, UnusedExports(graph, nil), UnusedExports(graph, nil))
	assert.Equal(t, OrphanFiles(graph, nil), OrphanFiles(graph, nil))
}
