package deps

import "strings"

// builtinScheme is the namespaced prefix Node accepts in front of built-in module names.
const builtinScheme = "node:"

// nodeBuiltins is the allow-list of Node.js built-in modules.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true,
	"https": true, "inspector": true, "module": true, "net": true,
	"os": true, "path": true, "perf_hooks": true, "process": true,
	"punycode": true, "querystring": true, "readline": true, "repl": true,
	"stream": true, "string_decoder": true, "sys": true, "timers": true,
	"tls": true, "trace_events": true, "tty": true, "url": true,
	"util": true, "v8": true, "vm": true, "wasi": true,
	"worker_threads": true, "zlib": true,
}

// schemeOnlyBuiltins only exist with the node: prefix.
var schemeOnlyBuiltins = map[string]bool{
	"sea": true, "sqlite": true, "test": true,
}

// IsBuiltin reports whether name refers to a Node.js built-in module.
// "node:fs", "fs" and "fs/promises" are all the same built-in.
func IsBuiltin(name string) bool {
	prefixed := strings.HasPrefix(name, builtinScheme)
	base := strings.TrimPrefix(name, builtinScheme)
	if i := strings.Index(base, "/"); i >= 0 {
		base = base[:i]
	}
	if nodeBuiltins[base] {
		return true
	}
	return prefixed && schemeOnlyBuiltins[base]
}

// PackageName reduces a bare specifier to its package name:
// "@scope/pkg/sub" is "@scope/pkg", "lodash/fp" is "lodash". Built-ins keep their scheme.
func PackageName(specifier string) string {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return specifier
	}
	if i := strings.Index(specifier, "/"); i >= 0 {
		return specifier[:i]
	}
	return specifier
}

// IsBareSpecifier reports whether specifier names a package rather than a relative or absolute path.
func IsBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"),
		specifier == ".", specifier == "..", strings.HasPrefix(specifier, "/"):
		return false
	}
	return true
}
