//go:build cgo

package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deperrors "depscope/internal/errors"
	"depscope/internal/manifest"
	"depscope/internal/modgraph"
	"depscope/internal/slogutil"
	"depscope/internal/testutil"
)

func TestScan_BuildsGraph(t *testing.T) {
	root := testutil.WriteRepo(t, map[string]string{
		"package.json": `{"name":"demo","main":"./dist/index.js","dependencies":{"react":"^18.0.0"}}`,
		"src/index.ts": `export * from "./utils/format";
export { Button } from "./components/Button";
`,
		"src/utils/format.ts": `import { pad } from "@/utils/pad";
import fs from "node:fs";
export function formatDate(d: Date): string { return pad(String(d)); }
`,
		"src/utils/pad.ts":              "export const pad = (s: string) => s;\n",
		"src/components/Button.tsx":     "import React from \"react\";\nexport function Button() { return null; }\n",
		"src/components/Button.test.ts": "import { Button } from \"./Button\";\n",
		"src/styles.css":                "a {}",
		"src/broken.ts":                 "import x from \"./nowhere\";\n",
		"node_modules/react/index.js":   "module.exports = {};\n",
		"dist/index.js":                 "export {};\n",
		"tsconfig.json":                 `{"compilerOptions":{"paths":{"@/*":["src/*"]}}}`,
	}).Root

	m, err := manifest.Load(filepath.Join(root, manifest.FileName))
	require.NoError(t, err)

	s, err := New(root, DefaultOptions(), slogutil.NewDiscardLogger())
	require.NoError(t, err)

	result, err := s.Scan(context.Background(), m)
	require.NoError(t, err)
	g := result.Graph

	assert.Equal(t, []string{
		"src/broken.ts",
		"src/components/Button.test.ts",
		"src/components/Button.tsx",
		"src/index.ts",
		"src/utils/format.ts",
		"src/utils/pad.ts",
	}, g.Files())
	assert.NoError(t, modgraph.Validate(g))

	assert.Equal(t, []string{"src/index.ts"}, result.Entries.Paths)

	index, ok := g.Node("src/index.ts")
	require.True(t, ok)
	assert.Equal(t, modgraph.RoleEntry, index.Role)
	assert.Equal(t, []string{"src/components/Button.tsx", "src/utils/format.ts"}, index.InternalTargets())
	require.Len(t, index.Exports, 2)
	assert.Equal(t, "src/utils/format.ts", index.Exports[0].From)
	assert.Equal(t, "Button", index.Exports[1].OriginalName)

	format, _ := g.Node("src/utils/format.ts")
	assert.Equal(t, modgraph.RoleUtil, format.Role)
	assert.Equal(t, []string{"src/utils/pad.ts"}, format.InternalTargets())
	assert.Equal(t, []string{"node:fs"}, format.ExternalNames())

	button, _ := g.Node("src/components/Button.tsx")
	assert.Equal(t, modgraph.RoleComponent, button.Role)
	assert.Equal(t, []string{"react"}, button.ExternalNames())
	assert.Equal(t, []string{"src/components/Button.test.ts", "src/index.ts"}, button.ImportedBy)

	test, _ := g.Node("src/components/Button.test.ts")
	assert.Equal(t, modgraph.RoleTest, test.Role)

	broken, _ := g.Node("src/broken.ts")
	assert.Equal(t, []string{"./nowhere"}, broken.Imports.Unresolved)
}

func TestScan_ExcludesAndSizeLimit(t *testing.T) {
	root := testutil.WriteRepo(t, map[string]string{
		"src/a.ts":                "export const a = 1;\n",
		"src/generated/schema.ts": "export const s = 1;\n",
		"src/big.ts":              "export const big = '" + string(make([]byte, 64)) + "';\n",
		".hidden/x.ts":            "export const x = 1;\n",
	}).Root

	opts := DefaultOptions()
	opts.Exclude = []string{"src/generated/**"}
	opts.MaxFileSize = 40

	s, err := New(root, opts, slogutil.NewDiscardLogger())
	require.NoError(t, err)
	result, err := s.Scan(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.ts"}, result.Graph.Files())
	assert.Equal(t, []SkippedFile{{Path: "src/big.ts", Reason: "too large"}}, result.Skipped)
}

func TestScan_Cancelled(t *testing.T) {
	root := testutil.WriteRepo(t, map[string]string{"a.ts": "export const a = 1;\n"}).Root
	s, err := New(root, DefaultOptions(), slogutil.NewDiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidExclude(t *testing.T) {
	opts := DefaultOptions()
	opts.Exclude = []string{"src/[unterminated"}
	_, err := New(t.TempDir(), opts, slogutil.NewDiscardLogger())
	assert.True(t, deperrors.Is(err, deperrors.ConfigInvalid))
}
