package merge

import (
	"path"
	"path/filepath"
	"strings"
)

// excludeRule is one parsed exclude pattern
type excludeRule struct {
	pattern  string
	dirOnly  bool // "doc/" excludes everything below any doc directory
	anyDepth bool // "**/x" matches x at any level
	fullPath bool // patterns containing "/" match the relative path, others the base name
}

// Excluder decides which candidate files are left out of the merge.
// Patterns support:
//   - Simple glob patterns: *.h, *.prl
//   - Directory patterns: Headers/, doc/
//   - Path patterns: lib/cmake/*, **/Resources/*
type Excluder struct {
	rules []excludeRule
}

// NewExcluder parses exclude patterns; empty patterns are ignored
func NewExcluder(patterns []string) *Excluder {
	e := &Excluder{}
	for _, p := range patterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p == "" {
			continue
		}

		rule := excludeRule{pattern: p}
		switch {
		case strings.HasSuffix(p, "/"):
			rule.dirOnly = true
			rule.pattern = strings.TrimSuffix(p, "/")
		case strings.HasPrefix(p, "**/"):
			rule.anyDepth = true
			rule.pattern = strings.TrimPrefix(p, "**/")
		}
		rule.fullPath = strings.Contains(rule.pattern, "/")
		e.rules = append(e.rules, rule)
	}
	return e
}

// Empty reports whether the excluder has no rules
func (e *Excluder) Empty() bool {
	return len(e.rules) == 0
}

// Match reports whether relativePath is excluded
func (e *Excluder) Match(relativePath string) bool {
	if len(e.rules) == 0 {
		return false
	}

	rel := filepath.ToSlash(relativePath)
	base := path.Base(rel)
	segments := strings.Split(rel, "/")

	for _, rule := range e.rules {
		if rule.matches(rel, base, segments) {
			return true
		}
	}
	return false
}

func (r excludeRule) matches(rel, base string, segments []string) bool {
	switch {
	case r.dirOnly:
		// Any parent directory prefix equal to or matching the pattern
		for i := 1; i < len(segments); i++ {
			parent := strings.Join(segments[:i], "/")
			if r.fullPath {
				if ok, _ := path.Match(r.pattern, parent); ok || strings.HasSuffix(parent, "/"+r.pattern) {
					return true
				}
				continue
			}
			if ok, _ := path.Match(r.pattern, segments[i-1]); ok {
				return true
			}
		}
		return false

	case r.anyDepth:
		if !r.fullPath {
			for _, segment := range segments {
				if ok, _ := path.Match(r.pattern, segment); ok {
					return true
				}
			}
			return false
		}
		// Try the pattern against every suffix of the path
		for i := range segments {
			if ok, _ := path.Match(r.pattern, strings.Join(segments[i:], "/")); ok {
				return true
			}
		}
		return false

	case r.fullPath:
		ok, _ := path.Match(r.pattern, rel)
		return ok

	default:
		ok, _ := path.Match(r.pattern, base)
		return ok
	}
}
