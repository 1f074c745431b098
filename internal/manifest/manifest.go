// Package manifest extracts entry points and declared dependencies from a package.json object.
package manifest

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	deperrors "depscope/internal/errors"
)

// FileName is the manifest file read by Load.
const FileName = "package.json"

// ExportTarget is one leaf of the conditional "exports" map.
type ExportTarget struct {
	// Subpath is the public subpath ("." for the package root).
	Subpath string `json:"subpath"`

	// Conditions are the condition keys on the way to the leaf ("import", "require", "types", ...).
	Conditions []string `json:"conditions,omitempty"`

	// Path is the file specifier the leaf points at.
	Path string `json:"path"`
}

// EntryPoints is the public surface declared by a manifest.
type EntryPoints struct {
	Main    string            `json:"main,omitempty"`
	Module  string            `json:"module,omitempty"`
	Types   string            `json:"types,omitempty"`
	Typings string            `json:"typings,omitempty"`
	Bin     map[string]string `json:"bin,omitempty"`

	// Exports are the non-negated leaves of the conditional export map in declaration order.
	Exports []ExportTarget `json:"exports,omitempty"`

	// Negated are entries hidden on purpose: "!path" leaves and "!key" for null values.
	// They never appear in All.
	Negated []string `json:"negated,omitempty"`

	// All is the sorted set of every non-negated entry specifier.
	All []string `json:"all"`
}

// Contains reports whether spec is part of the public entry set.
func (e EntryPoints) Contains(spec string) bool {
	i := sort.SearchStrings(e.All, spec)
	return i < len(e.All) && e.All[i] == spec
}

// IsNegated reports whether entry was explicitly hidden. entry may be given with or without the "!" prefix.
func (e EntryPoints) IsNegated(entry string) bool {
	if !strings.HasPrefix(entry, "!") {
		entry = "!" + entry
	}
	for _, n := range e.Negated {
		if n == entry {
			return true
		}
	}
	return false
}

// ConditionsFor returns the union of conditions under which spec is exported, in sorted order.
func (e EntryPoints) ConditionsFor(spec string) []string {
	set := make(map[string]struct{})
	for _, t := range e.Exports {
		if t.Path == spec {
			for _, c := range t.Conditions {
				set[c] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Manifest is the analyzed form of a package.json.
type Manifest struct {
	Name         string         `json:"name,omitempty"`
	Version      string         `json:"version,omitempty"`
	EntryPoints  EntryPoints    `json:"entryPoints"`
	Dependencies DependencyInfo `json:"dependencies"`
}

// Analyze extracts entry points and dependencies from a decoded manifest.
// It never fails: malformed fields are treated as absent.
func Analyze(raw any) *Manifest {
	obj, _ := raw.(map[string]any)
	return &Manifest{
		Name:         stringField(obj, "name"),
		Version:      stringField(obj, "version"),
		EntryPoints:  ExtractEntryPoints(raw),
		Dependencies: ExtractDependencies(raw),
	}
}

// Load reads and analyzes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deperrors.New(deperrors.ManifestNotFound, "failed to read "+path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, deperrors.New(deperrors.ManifestInvalid, "failed to parse "+path, err)
	}
	return Analyze(raw), nil
}

func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}
