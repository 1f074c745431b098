package scan

import (
	"path"
	"strings"

	"depscope/internal/deadcode"
	"depscope/internal/modgraph"
	"depscope/internal/parser"
)

var (
	componentDirs = []string{"components", "component", "views", "pages", "ui", "widgets"}
	serviceDirs   = []string{"services", "service", "api", "clients", "repositories", "store", "stores"}
	utilDirs      = []string{"utils", "util", "helpers", "helper", "lib", "shared", "common"}
	typeDirs      = []string{"types", "typings", "@types", "interfaces"}
)

// ClassifyRole assigns a role from a file's path, its exports and whether the manifest exposes it.
// The first matching rule wins: entry, test, config, declaration types, barrel, type-only exports,
// component, service, util.
func ClassifyRole(relPath string, facts *parser.FileFacts, isEntry bool) modgraph.Role {
	lower := strings.ToLower(relPath)
	base := path.Base(lower)
	dirs := strings.Split(path.Dir(lower), "/")

	switch {
	case isEntry:
		return modgraph.RoleEntry
	case deadcode.IsTestFile(relPath):
		return modgraph.RoleTest
	case isConfigFile(base):
		return modgraph.RoleConfig
	case strings.HasSuffix(base, ".d.ts"), strings.HasSuffix(base, ".d.mts"), strings.HasSuffix(base, ".d.cts"):
		return modgraph.RoleType
	}

	if facts != nil && facts.ReExportsOnly() {
		return modgraph.RoleBarrel
	}
	if (facts != nil && exportsOnlyTypes(facts)) || inDir(dirs, typeDirs) || hasStem(base, "types") {
		return modgraph.RoleType
	}

	switch {
	case strings.HasSuffix(base, ".tsx"), strings.HasSuffix(base, ".jsx"), inDir(dirs, componentDirs):
		return modgraph.RoleComponent
	case inDir(dirs, serviceDirs), strings.Contains(base, "service."), strings.Contains(base, ".api."),
		strings.Contains(base, "client."):
		return modgraph.RoleService
	case inDir(dirs, utilDirs), strings.Contains(base, "util"), strings.Contains(base, "helper"):
		return modgraph.RoleUtil
	}
	return modgraph.RoleUnknown
}

// isConfigFile matches tool configs: vite.config.ts, config.js and dotfiles such as .eslintrc.cjs.
func isConfigFile(base string) bool {
	stem := strings.TrimSuffix(base, path.Ext(base))
	return strings.Contains(base, ".config.") || stem == "config" ||
		(strings.HasPrefix(base, ".") && strings.HasSuffix(stem, "rc"))
}

func exportsOnlyTypes(facts *parser.FileFacts) bool {
	if len(facts.Exports) == 0 {
		return false
	}
	for _, e := range facts.Exports {
		if !e.Kind.IsTypeKind() && !e.TypeOnly {
			return false
		}
	}
	return true
}

// hasStem reports whether base is stem plus a single extension.
func hasStem(base, stem string) bool {
	return strings.TrimSuffix(base, path.Ext(base)) == stem
}

func inDir(dirs, names []string) bool {
	for _, d := range dirs {
		for _, n := range names {
			if d == n {
				return true
			}
		}
	}
	return false
}
