package matcher

import (
	"github.com/gobwas/glob"
)

// Set matches file names against an ordered list of glob patterns.
type Set struct {
	patterns []string
	globs    []glob.Glob
}

// New compiles patterns into a Set. Patterns use '/' as the path separator
// and support brace alternation, e.g. "{.obfusconfig*,.obfusrc}".
func New(patterns ...string) (*Set, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pat := range patterns {
		g, err := glob.Compile(pat, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return &Set{patterns: patterns, globs: globs}, nil
}

// MustNew is like New but panics on an invalid pattern. Intended for
// package-level pattern tables.
func MustNew(patterns ...string) *Set {
	s, err := New(patterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Match returns the index of the first pattern matching name, or -1.
func (s *Set) Match(name string) int {
	for i, g := range s.globs {
		if g.Match(name) {
			return i
		}
	}
	return -1
}

// Matches reports whether any pattern matches name.
func (s *Set) Matches(name string) bool {
	return s.Match(name) >= 0
}

// Patterns returns the source patterns in order.
func (s *Set) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}
