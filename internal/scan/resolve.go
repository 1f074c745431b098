package scan

import (
	"os"
	"path"
	"sort"
	"strings"

	"depscope/internal/deps"
	"depscope/internal/paths"
)

// Resolution classifies where a specifier points.
type Resolution int

const (
	// Internal specifiers resolve to a scanned source file.
	Internal Resolution = iota
	// External specifiers name a package.
	External
	// Asset specifiers point at a non-source file that exists (styles, JSON, images).
	Asset
	// Unresolved specifiers are relative or aliased paths with no matching file.
	Unresolved
)

// sourceExtensions is the probing order for extensionless specifiers.
var sourceExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// esmSwaps maps an emitted extension to the source extensions it is compiled from.
// TypeScript ESM code imports "./x.js" while the file on disk is "./x.ts".
var esmSwaps = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

type alias struct {
	prefix string
	target string
	exact  bool
}

// Resolver maps import specifiers to repository files.
type Resolver struct {
	root    string
	files   map[string]bool
	sorted  []string
	aliases []alias
}

// NewResolver creates a resolver over repo-relative file paths. Aliases map a specifier prefix to a
// repo-relative directory ("@/*" -> "src/*", "~utils" -> "src/utils"). root is used to recognize assets
// and may be empty.
func NewResolver(root string, files []string, aliases map[string]string) *Resolver {
	r := &Resolver{root: root, files: make(map[string]bool, len(files))}
	for _, f := range files {
		f = paths.NormalizePath(f)
		if !r.files[f] {
			r.files[f] = true
			r.sorted = append(r.sorted, f)
		}
	}
	sort.Strings(r.sorted)

	for key, target := range aliases {
		a := alias{
			prefix: strings.TrimSuffix(key, "*"),
			target: paths.NormalizePath(strings.TrimSuffix(target, "*")),
		}
		a.exact = !strings.HasSuffix(a.prefix, "/") && a.prefix == key
		r.aliases = append(r.aliases, a)
	}
	// Longest prefix wins.
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].prefix) != len(r.aliases[j].prefix) {
			return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
		}
		return r.aliases[i].prefix < r.aliases[j].prefix
	})
	return r
}

// Files returns the known files in lexicographic order.
func (r *Resolver) Files() []string {
	return r.sorted
}

// Resolve resolves spec as imported from the repo-relative file from.
// The returned target is only meaningful for Internal resolutions.
func (r *Resolver) Resolve(from, spec string) (string, Resolution) {
	if i := strings.IndexAny(spec, "?#"); i > 0 {
		spec = spec[:i]
	}

	if deps.IsBareSpecifier(spec) {
		if p, ok := r.applyAlias(spec); ok {
			target, res := r.resolvePathOrAsset(p)
			if res != Unresolved || !namesPackage(spec) {
				return target, res
			}
		}
		// A path mapping that misses falls back to package resolution.
		return "", External
	}

	var p string
	if strings.HasPrefix(spec, "/") {
		p = path.Clean(strings.TrimPrefix(spec, "/"))
	} else {
		p = path.Join(path.Dir(from), spec)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", Unresolved
	}
	return r.resolvePathOrAsset(p)
}

// namesPackage reports whether a bare specifier could name an npm package. Alias-only forms such as
// "@/x" or "~x" cannot.
func namesPackage(spec string) bool {
	switch spec[0] {
	case '@':
		scope, name, ok := strings.Cut(spec[1:], "/")
		return ok && scope != "" && name != "" && !strings.HasPrefix(name, "/")
	case '~', '#', '.', '_':
		return false
	}
	return true
}

func (r *Resolver) applyAlias(spec string) (string, bool) {
	for _, a := range r.aliases {
		var rest string
		switch {
		case a.exact && spec == a.prefix:
		case a.exact && strings.HasPrefix(spec, a.prefix+"/"):
			rest = spec[len(a.prefix):]
		case !a.exact && strings.HasPrefix(spec, a.prefix):
			rest = spec[len(a.prefix):]
			if !strings.HasSuffix(a.target, "/") && rest != "" && !strings.HasPrefix(rest, "/") {
				rest = "/" + rest
			}
		default:
			continue
		}
		return path.Clean(a.target + rest), true
	}
	return "", false
}

func (r *Resolver) resolvePathOrAsset(p string) (string, Resolution) {
	if target, ok := r.ResolvePath(p); ok {
		return target, Internal
	}
	if r.root != "" && path.Ext(p) != "" {
		if info, err := os.Stat(paths.JoinRepoPath(r.root, p)); err == nil && !info.IsDir() {
			return "", Asset
		}
	}
	return "", Unresolved
}

// ResolvePath probes a repo-relative path the way Node and TypeScript do: the exact file, the
// emitted-to-source extension swap, every source extension, then directory index files.
func (r *Resolver) ResolvePath(p string) (string, bool) {
	p = paths.NormalizePath(path.Clean(p))
	if r.files[p] {
		return p, true
	}

	ext := path.Ext(p)
	if swaps, ok := esmSwaps[ext]; ok {
		stem := strings.TrimSuffix(p, ext)
		for _, s := range swaps {
			if r.files[stem+s] {
				return stem + s, true
			}
		}
	}

	for _, e := range sourceExtensions {
		if r.files[p+e] {
			return p + e, true
		}
	}
	for _, e := range sourceExtensions {
		if candidate := path.Join(p, "index"+e); r.files[candidate] {
			return candidate, true
		}
	}
	return "", false
}
