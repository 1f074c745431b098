package architecture

import "strings"

// maxFlatDepth is the deepest a file may sit below its top-level root in a flat layout.
const maxFlatDepth = 3

// normalizePath lower-cases a relative path and uses forward slashes.
func normalizePath(p string) string {
	p = strings.TrimPrefix(toSlash(p), "./")
	return strings.ToLower(p)
}

// DetectPattern classifies the repository layout from its relative file paths.
// Checks run in a fixed order and the first match wins.
func DetectPattern(paths []string) Pattern {
	if len(paths) == 0 {
		return PatternUnknown
	}

	dirs := make(map[string]bool)
	roots := make(map[string]bool)
	maxDepth := 0
	for _, p := range paths {
		segments := strings.Split(normalizePath(p), "/")
		for _, dir := range segments[:len(segments)-1] {
			dirs[dir] = true
		}

		if len(segments) == 1 {
			roots["."] = true
		} else {
			roots[segments[0]] = true
			if depth := len(segments) - 1; depth > maxDepth {
				maxDepth = depth
			}
		}
	}

	switch {
	case dirs["packages"] || dirs["apps"]:
		return PatternMonorepo
	case dirs["features"] || dirs["modules"]:
		return PatternFeatureBased
	case dirs["components"] && (dirs["services"] || dirs["utils"]):
		return PatternLayered
	case len(roots) == 1 && maxDepth <= maxFlatDepth:
		return PatternFlat
	default:
		return PatternUnknown
	}
}
