package architecture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depscope/internal/deps"
	deperrors "depscope/internal/errors"
	"depscope/internal/modgraph"
	"depscope/internal/testutil"
)

func TestDetectPattern(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  Pattern
	}{
		{"empty", nil, PatternUnknown},
		{"monorepo packages", []string{"packages/core/src/index.ts", "packages/ui/src/button.tsx"}, PatternMonorepo},
		{"monorepo apps wins over features", []string{"apps/web/features/login.ts"}, PatternMonorepo},
		{"feature based", []string{"src/features/auth/login.ts", "src/features/cart/cart.ts"}, PatternFeatureBased},
		{"modules", []string{"src/Modules/billing/index.ts"}, PatternFeatureBased},
		{"layered", []string{"src/components/Button.tsx", "src/services/api.ts"}, PatternLayered},
		{"layered with utils", []string{"src/components/Button.tsx", "src/utils/format.ts"}, PatternLayered},
		{"components alone", []string{"src/components/a/b/c/Button.tsx"}, PatternUnknown},
		{"flat", []string{"src/index.ts", "src/a/b.ts", "src/a/b/c.ts"}, PatternFlat},
		{"too deep for flat", []string{"src/a/b/c/d.ts"}, PatternUnknown},
		{"two roots", []string{"src/index.ts", "lib/index.ts"}, PatternUnknown},
		{"windows separators", []string{`src\features\auth.ts`}, PatternFeatureBased},
		{"file named like a directory", []string{"src/packages.ts"}, PatternFlat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectPattern(tc.paths); got != tc.want {
				t.Errorf("DetectPattern(%v) = %q, want %q", tc.paths, got, tc.want)
			}
		})
	}
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		glob string
		path string
		want bool
	}{
		{"**/components/**", "src/components/Button.tsx", true},
		{"**/components/**", "components/Button.tsx", true},
		{"**/components/**", "src/Components/ui/Button.tsx", true},
		{"**/components/**", "src/componentsX/Button.tsx", false},
		{"src/*.ts", "src/index.ts", true},
		{"src/*.ts", "src/a/index.ts", false},
		{"src/**", "src/a/b/c.ts", true},
		{"src/?.ts", "src/a.ts", true},
		{"src/?.ts", "src/ab.ts", false},
		{"src/a.ts", "src/aXts", false},
		{"./lib/**", "lib/x.ts", true},
	}

	for _, tc := range tests {
		if got := CompilePattern(tc.glob).MatchString(tc.path); got != tc.want {
			t.Errorf("CompilePattern(%q).MatchString(%q) = %v, want %v", tc.glob, tc.path, got, tc.want)
		}
	}
}

func TestPatternCache(t *testing.T) {
	c := NewPatternCache(2)
	first := c.Get("**/a/**")
	assert.Same(t, first, c.Get("**/a/**"))
	c.Get("**/b/**")
	c.Get("**/c/**")
	assert.Equal(t, 2, c.Size())
	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestAssignLayers_FirstMatchWins(t *testing.T) {
	layers := []Layer{
		{Name: "first", PathPatterns: []string{"**/shared/**"}},
		{Name: "second", PathPatterns: []string{"src/shared/ui/**"}},
	}
	got := AssignLayers([]string{"src/shared/ui/button.tsx", "src/other.ts"}, layers)
	assert.Equal(t, map[string]string{"src/shared/ui/button.tsx": "first"}, got)

	reversed := []Layer{layers[1], layers[0]}
	got = AssignLayers([]string{"src/shared/ui/button.tsx"}, reversed)
	assert.Equal(t, "second", got["src/shared/ui/button.tsx"])
}

func TestAnalyze_SharedImportingPresentation(t *testing.T) {
	g := testutil.NewGraph(t)
	g.File("src/utils/format.ts", modgraph.RoleUtil).Import("src/components/Button.tsx", "Button")
	g.File("src/components/Button.tsx", modgraph.RoleComponent).Import("src/utils/format.ts", "format")
	g.File("src/index.ts", modgraph.RoleEntry).Import("src/components/Button.tsx", "Button")

	result := Analyze(g.Build(), DefaultLayers())

	assert.Equal(t, []Violation{{
		From:      "src/utils/format.ts",
		To:        "src/components/Button.tsx",
		FromLayer: "shared",
		ToLayer:   "presentation",
	}}, result.Violations)
	assert.Equal(t, PatternLayered, result.Pattern)

	byName := make(map[string]LayerResult)
	for _, l := range result.Layers {
		byName[l.Name] = l
	}
	assert.Equal(t, []string{"src/components/Button.tsx"}, byName["presentation"].Files)
	assert.Equal(t, []string{"src/utils/format.ts"}, byName["presentation"].ViolatingFiles)
	assert.Equal(t, []string{"src/utils/format.ts"}, byName["shared"].Files)
	assert.Empty(t, byName["shared"].ViolatingFiles)
	assert.Empty(t, byName["domain"].Files)

	var names []string
	for _, l := range result.Layers {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"presentation", "domain", "infrastructure", "shared"}, names)
}

func TestFindViolations_SameLayerAndUnassigned(t *testing.T) {
	edges := []deps.DependencyEdge{
		{From: "a", To: "b"},
		{From: "a", To: "x"},
		{From: "x", To: "c"},
		{From: "c", To: "a"},
	}
	assignment := map[string]string{"a": "domain", "b": "domain", "c": "infrastructure"}
	layers := []Layer{
		{Name: "domain"},
		{Name: "infrastructure", AllowedDependencyLayers: []string{"domain"}},
	}
	assert.Empty(t, FindViolations(edges, assignment, layers))

	edges = append(edges, deps.DependencyEdge{From: "b", To: "c"})
	assert.Equal(t, []Violation{{From: "b", To: "c", FromLayer: "domain", ToLayer: "infrastructure"}},
		FindViolations(edges, assignment, layers))
}

func TestAnalyze_EmptyGraph(t *testing.T) {
	result := Analyze(modgraph.Empty(), DefaultLayers())
	assert.Equal(t, PatternUnknown, result.Pattern)
	assert.Empty(t, result.Violations)
	assert.Len(t, result.Layers, 4)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()

	layers, err := LoadLayers(dir, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultLayers(), layers)

	content := `version = 1

[[layer]]
name = "app"
patterns = ["src/app/**"]
allowed = ["core"]
description = "Application shell"

[[layer]]
name = "core"
patterns = ["src/core/**"]
allowed = []
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, LayersDeclarationFile), []byte(content), 0o644))

	layers, err = LoadLayers(dir, "")
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "app", layers[0].Name)
	assert.Equal(t, []string{"src/app/**"}, layers[0].PathPatterns)
	assert.Equal(t, []string{"core"}, layers[0].AllowedDependencyLayers)
	assert.Equal(t, "Application shell", layers[0].Description)
}

func TestLoadLayers_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[[layer]\nname ="},
		{"duplicate", "[[layer]]\nname = \"a\"\n[[layer]]\nname = \"a\"\n"},
		{"unknown allowed", "[[layer]]\nname = \"a\"\nallowed = [\"b\"]\n"},
		{"missing name", "[[layer]]\npatterns = [\"x/**\"]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, LayersDeclarationFile), []byte(tc.content), 0o644))
			_, err := LoadLayers(dir, "")
			assert.Equal(t, deperrors.LayersInvalid, deperrors.CodeOf(err))
		})
	}
}

func TestWriteLayersFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", LayersDeclarationFile)
	require.NoError(t, WriteLayersFile(path, DefaultLayersFile()))

	parsed, err := ParseLayersFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultLayers(), parsed.Layers)
}
