package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoFiles = []string{
	"src/index.ts",
	"src/utils/index.ts",
	"src/utils/format.ts",
	"src/components/Button.tsx",
	"src/legacy.js",
	"src/esm/worker.mts",
	"lib/helpers.cjs",
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver("", repoFiles, map[string]string{
		"@/*":    "src/*",
		"~utils": "src/utils",
	})

	tests := []struct {
		name   string
		from   string
		spec   string
		target string
		kind   Resolution
	}{
		{"extension probing", "src/index.ts", "./utils/format", "src/utils/format.ts", Internal},
		{"directory index", "src/index.ts", "./utils", "src/utils/index.ts", Internal},
		{"exact file", "src/index.ts", "./legacy.js", "src/legacy.js", Internal},
		{"esm js to ts", "src/index.ts", "./utils/format.js", "src/utils/format.ts", Internal},
		{"esm js to tsx", "src/index.ts", "./components/Button.js", "src/components/Button.tsx", Internal},
		{"esm mjs to mts", "src/index.ts", "./esm/worker.mjs", "src/esm/worker.mts", Internal},
		{"parent directory", "src/utils/format.ts", "../components/Button", "src/components/Button.tsx", Internal},
		{"root absolute", "src/index.ts", "/lib/helpers.cjs", "lib/helpers.cjs", Internal},
		{"query string", "src/index.ts", "./legacy?raw", "src/legacy.js", Internal},
		{"wildcard alias", "src/index.ts", "@/utils/format", "src/utils/format.ts", Internal},
		{"exact alias", "src/index.ts", "~utils", "src/utils/index.ts", Internal},
		{"exact alias subpath", "src/index.ts", "~utils/format", "src/utils/format.ts", Internal},
		{"bare package", "src/index.ts", "react", "", External},
		{"scoped package", "src/index.ts", "@scope/pkg/sub", "", External},
		{"builtin", "src/index.ts", "node:fs", "", External},
		{"missing file", "src/index.ts", "./missing", "", Unresolved},
		{"outside repo", "src/index.ts", "../../elsewhere", "", Unresolved},
		{"alias without file", "src/index.ts", "@/nothing", "", Unresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, kind := r.Resolve(tt.from, tt.spec)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestResolver_Assets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "styles.css"), []byte("a{}"), 0o644))

	r := NewResolver(root, []string{"src/index.ts"}, nil)

	_, kind := r.Resolve("src/index.ts", "./styles.css")
	assert.Equal(t, Asset, kind)

	_, kind = r.Resolve("src/index.ts", "./missing.css")
	assert.Equal(t, Unresolved, kind)
}

func TestResolver_LongestAliasWins(t *testing.T) {
	r := NewResolver("", []string{"src/a.ts", "packages/ui/a.ts"}, map[string]string{
		"@/*":    "src/*",
		"@/ui/*": "packages/ui/*",
	})
	target, kind := r.Resolve("src/a.ts", "@/ui/a")
	assert.Equal(t, Internal, kind)
	assert.Equal(t, "packages/ui/a.ts", target)
}

func TestResolver_CatchAllAliasFallsBackToPackage(t *testing.T) {
	r := NewResolver("", []string{"src/a.ts", "src/b.ts"}, map[string]string{
		"*": "src/*",
	})

	target, kind := r.Resolve("src/a.ts", "b")
	assert.Equal(t, Internal, kind)
	assert.Equal(t, "src/b.ts", target)

	target, kind = r.Resolve("src/a.ts", "react")
	assert.Equal(t, External, kind)
	assert.Empty(t, target)

	_, kind = r.Resolve("src/a.ts", "@scope/pkg")
	assert.Equal(t, External, kind)

	_, kind = r.Resolve("src/a.ts", "./missing")
	assert.Equal(t, Unresolved, kind)
}

func TestResolver_ResolvePath(t *testing.T) {
	r := NewResolver("", repoFiles, nil)

	got, ok := r.ResolvePath("./src/utils")
	assert.True(t, ok)
	assert.Equal(t, "src/utils/index.ts", got)

	_, ok = r.ResolvePath("src/nothing")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"lib/helpers.cjs",
		"src/components/Button.tsx",
		"src/esm/worker.mts",
		"src/index.ts",
		"src/legacy.js",
		"src/utils/format.ts",
		"src/utils/index.ts",
	}, r.Files())
}

func TestLoadTSConfigAliases(t *testing.T) {
	root := t.TempDir()

	aliases, err := LoadTSConfigAliases(root)
	require.NoError(t, err)
	assert.Empty(t, aliases)

	tsconfig := `{
  // comment
  "compilerOptions": {
    "baseUrl": "./",
    /* block
       comment */
    "paths": {
      "@/*": ["src/*"],
      "@lib": ["./packages/lib/index.ts"],
      "url-like": ["http://not-a-comment"],
    },
  },
}`
	require.NoError(t, os.WriteFile(filepath.Join(root, TSConfigFile), []byte(tsconfig), 0o644))

	aliases, err = LoadTSConfigAliases(root)
	require.NoError(t, err)
	assert.Equal(t, "src/*", aliases["@/*"])
	assert.Equal(t, "packages/lib/index.ts", aliases["@lib"])
	assert.Equal(t, "http:/not-a-comment", aliases["url-like"])

	require.NoError(t, os.WriteFile(filepath.Join(root, TSConfigFile), []byte("{ nope"), 0o644))
	_, err = LoadTSConfigAliases(root)
	assert.Error(t, err)
}
