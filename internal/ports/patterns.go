package ports

// PatternMatcher finds keyword texts inside a title using multi-pattern
// matching (Aho-Corasick). A single pass over the title reports every
// pattern that occurs in it, regardless of how many patterns are loaded.
// This is O(n + m + z) where n=title length, m=total pattern length,
// z=number of matches.
//
// The matcher must be rebuilt when the active dataset changes. Rebuild is
// expected to be infrequent (once per import).
type PatternMatcher interface {
	// Match returns the distinct patterns that occur in content, overlapping
	// occurrences included. Returns nil if nothing matches. Content is
	// matched as-is.
	Match(content string) []string

	// Rebuild replaces the entire pattern set and reconstructs the
	// automaton. Empty patterns are ignored.
	Rebuild(patterns []string)
}
