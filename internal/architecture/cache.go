package architecture

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultPatternCacheSize bounds the number of compiled layer patterns kept in memory.
const defaultPatternCacheSize = 512

// PatternCache provides in-memory caching of compiled layer patterns.
// It is safe for concurrent use.
type PatternCache struct {
	compiled *lru.Cache[string, *regexp.Regexp]
}

// NewPatternCache creates a pattern cache holding at most size entries.
func NewPatternCache(size int) *PatternCache {
	if size <= 0 {
		size = defaultPatternCacheSize
	}
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &PatternCache{compiled: c}
}

// Get returns the compiled matcher for a glob, compiling it on first use.
func (c *PatternCache) Get(glob string) *regexp.Regexp {
	if re, ok := c.compiled.Get(glob); ok {
		return re
	}
	re := CompilePattern(glob)
	c.compiled.Add(glob, re)
	return re
}

// Size returns the number of cached entries.
func (c *PatternCache) Size() int {
	return c.compiled.Len()
}

// Clear removes all cached entries.
func (c *PatternCache) Clear() {
	c.compiled.Purge()
}

var sharedPatterns = NewPatternCache(defaultPatternCacheSize)

// CompilePattern translates a layer glob into an anchored, case-insensitive regular expression.
// "**/" matches zero or more directories, "**" anything, "*" anything but "/", "?" one non-"/" character.
func CompilePattern(glob string) *regexp.Regexp {
	glob = strings.TrimPrefix(toSlash(glob), "./")

	var b strings.Builder
	b.WriteString("(?i)^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == '*' && i+1 < len(glob) && glob[i+1] == '*':
			if i+2 < len(glob) && glob[i+2] == '/' {
				b.WriteString("(?:.*/)?")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// MatchPath reports whether a relative path matches a layer glob.
func MatchPath(glob, relPath string) bool {
	return sharedPatterns.Get(glob).MatchString(strings.TrimPrefix(toSlash(relPath), "./"))
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
