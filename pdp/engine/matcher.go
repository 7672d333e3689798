// api/pdp/engine/matcher.go
package engine

import (
	"regexp"
	"strings"
	"sync"
)

// CompilePattern turns a route pattern into an anchored regular expression.
// A named segment (:id) matches one or more non-slash characters, so it
// never crosses a path boundary. A wildcard (*) matches zero or more
// characters of any kind to support prefix-style catch-alls. Everything
// else is matched literally and case-sensitively.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*':
			sb.WriteString(".*")
		case c == ':':
			// Consume the parameter name up to the next slash.
			j := i + 1
			for j < len(pattern) && pattern[j] != '/' {
				j++
			}
			if j > i+1 {
				sb.WriteString("[^/]+")
				i = j - 1
			} else {
				sb.WriteString(regexp.QuoteMeta(":"))
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// MatchRoute reports whether a concrete route satisfies a pattern.
// An invalid pattern matches nothing.
func MatchRoute(pattern, route string) bool {
	re, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(route)
}

// patternCache memoizes compiled patterns so repeated evaluations of the
// same policy set do not recompile. Compilation is pure, so a racing
// double-compile is harmless.
type patternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

func newPatternCache() *patternCache {
	return &patternCache{
		compiled: make(map[string]*regexp.Regexp),
	}
}

func (pc *patternCache) match(pattern, route string) bool {
	pc.mu.RLock()
	re, ok := pc.compiled[pattern]
	pc.mu.RUnlock()

	if !ok {
		var err error
		re, err = CompilePattern(pattern)
		if err != nil {
			return false
		}
		pc.mu.Lock()
		pc.compiled[pattern] = re
		pc.mu.Unlock()
	}

	return re.MatchString(route)
}
