// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher implements ports.PatternMatcher for keyword texts.
// Build() compiles an automaton; Match() returns the patterns found in a title.
// Safe for concurrent use; Rebuild swaps the automaton under a write lock.
type Matcher struct {
	mu        sync.RWMutex
	automaton aho.AhoCorasick
	patterns  []string
	built     bool
}

// New returns a matcher compiled from patterns.
func New(patterns []string) *Matcher {
	m := &Matcher{}
	m.Build(patterns)
	return m
}

// Build compiles the automaton. Empty and repeated patterns are dropped.
func (m *Matcher) Build(patterns []string) {
	seen := make(map[string]bool, len(patterns))
	p := make([]string, 0, len(patterns))
	for _, s := range patterns {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		p = append(p, s)
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	automaton := builder.Build(p)

	m.mu.Lock()
	m.automaton = automaton
	m.patterns = p
	m.built = true
	m.mu.Unlock()
}

// Match returns every pattern occurring in content, in order of first
// occurrence. Overlapping occurrences count, so "菜板" and "家用菜板" are both
// reported for "家用菜板".
func (m *Matcher) Match(content string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.built || len(m.patterns) == 0 || content == "" {
		return nil
	}

	seen := make(map[int]bool)
	var result []string
	iter := m.automaton.IterOverlappingByte([]byte(content))
	for next := iter.Next(); next != nil; next = iter.Next() {
		idx := next.Pattern()
		if !seen[idx] {
			seen[idx] = true
			result = append(result, m.patterns[idx])
		}
	}
	return result
}

// Rebuild replaces the automaton with a new set of patterns.
func (m *Matcher) Rebuild(patterns []string) {
	m.Build(patterns)
}
