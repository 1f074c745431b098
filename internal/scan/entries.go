package scan

import (
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"depscope/internal/exportflow"
	"depscope/internal/manifest"
	"depscope/internal/paths"
)

// outputDirs are build output directories whose files are compiled from src/.
var outputDirs = map[string]bool{"dist": true, "lib": true, "build": true, "out": true}

// formatDirs are module-format subdirectories inside an output directory (dist/esm/index.js).
var formatDirs = map[string]bool{"esm": true, "cjs": true, "es": true, "umd": true, "mjs": true, "types": true}

// fallbackEntries are probed when the manifest exposes no scanned file.
var fallbackEntries = []string{"src/index", "index", "src/main", "main"}

// Entries are the manifest entry points mapped onto scanned files.
type Entries struct {
	// Paths are the entry file identities in manifest order, without duplicates.
	Paths []string `json:"paths"`

	// Points carry the public subpath and conditions of each mapped entry.
	Points []exportflow.EntryPoint `json:"points"`

	// Unmapped lists manifest entries no scanned file corresponds to.
	Unmapped []string `json:"unmapped,omitempty"`

	// Fallback is set when no manifest entry mapped and conventional index files were used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// MapEntries maps manifest entries to repository files. Entries that point into build output
// (dist/, lib/, build/, out/) are mapped back to src/. Declaration entries map to their source.
func MapEntries(m *manifest.Manifest, r *Resolver) Entries {
	out := Entries{Paths: []string{}, Points: []exportflow.EntryPoint{}}
	seen := make(map[string]bool)
	unmapped := make(map[string]bool)

	add := func(spec string, point exportflow.EntryPoint) {
		files := mapEntry(spec, r)
		if len(files) == 0 {
			if !unmapped[spec] {
				unmapped[spec] = true
				out.Unmapped = append(out.Unmapped, spec)
			}
			return
		}
		for _, f := range files {
			p := point
			p.File = f
			out.Points = append(out.Points, p)
			if !seen[f] {
				seen[f] = true
				out.Paths = append(out.Paths, f)
			}
		}
	}

	if m != nil {
		ep := m.EntryPoints
		for _, spec := range []string{ep.Main, ep.Module, ep.Types, ep.Typings} {
			if spec != "" {
				add(spec, exportflow.EntryPoint{Subpath: "."})
			}
		}
		bins := make([]string, 0, len(ep.Bin))
		for name := range ep.Bin {
			bins = append(bins, name)
		}
		sort.Strings(bins)
		for _, name := range bins {
			add(ep.Bin[name], exportflow.EntryPoint{})
		}
		for _, t := range ep.Exports {
			add(t.Path, exportflow.EntryPoint{Subpath: t.Subpath, Conditions: t.Conditions})
		}
	}

	if len(out.Paths) == 0 {
		for _, candidate := range fallbackEntries {
			if f, ok := r.ResolvePath(candidate); ok {
				out.Paths = append(out.Paths, f)
				out.Points = append(out.Points, exportflow.EntryPoint{File: f, Subpath: "."})
				out.Fallback = true
				break
			}
		}
	}
	return out
}

// mapEntry returns the files an entry specifier denotes.
func mapEntry(spec string, r *Resolver) []string {
	p := path.Clean(paths.NormalizePath(spec))
	if p == "." || strings.HasPrefix(p, "../") {
		return nil
	}

	for _, candidate := range sourceCandidates(p) {
		if strings.Contains(candidate, "*") {
			if matches := matchWildcard(candidate, r); len(matches) > 0 {
				return matches
			}
			continue
		}
		if f, ok := r.ResolvePath(candidate); ok {
			return []string{f}
		}
		if f, ok := r.ResolvePath(stripExt(candidate)); ok {
			return []string{f}
		}
	}
	return nil
}

// sourceCandidates lists p and its build-output-to-source mappings, most specific first.
func sourceCandidates(p string) []string {
	candidates := []string{p}
	segments := strings.Split(p, "/")
	if len(segments) < 2 || !outputDirs[segments[0]] {
		return candidates
	}
	rest := segments[1:]
	candidates = append(candidates, path.Join(append([]string{"src"}, rest...)...))
	if len(rest) > 1 && formatDirs[rest[0]] {
		candidates = append(candidates, path.Join(append([]string{"src"}, rest[1:]...)...))
	}
	return candidates
}

// stripExt removes the emitted extension, including the double extension of declaration files.
func stripExt(p string) string {
	for _, ext := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return strings.TrimSuffix(p, path.Ext(p))
}

// matchWildcard expands an export-map pattern ("dist/features/*.js") over source files of any extension.
func matchWildcard(pattern string, r *Resolver) []string {
	g, err := glob.Compile(stripExt(pattern)+".{"+strings.Join(trimDots(sourceExtensions), ",")+"}", '/')
	if err != nil {
		return nil
	}
	var out []string
	for _, f := range r.Files() {
		if g.Match(f) && !strings.HasSuffix(f, ".d.ts") {
			out = append(out, f)
		}
	}
	return out
}

func trimDots(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}
