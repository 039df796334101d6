package title

import "strings"

// Selection is the ordered set of tokens a user has clicked on to narrow a
// keyword list. The zero value is an empty selection.
type Selection struct {
	tokens []string
}

// Select replays clicks in order: a token clicked twice is deselected.
// Blank tokens are ignored.
func Select(clicks []string) *Selection {
	s := &Selection{}
	for _, tok := range clicks {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		s.Toggle(tok)
	}
	return s
}

// Toggle adds tok when absent and removes it when present.
func (s *Selection) Toggle(tok string) {
	for i, t := range s.tokens {
		if t == tok {
			s.tokens = append(s.tokens[:i:i], s.tokens[i+1:]...)
			return
		}
	}
	s.tokens = append(s.tokens, tok)
}

// Has reports whether tok is selected.
func (s *Selection) Has(tok string) bool {
	for _, t := range s.tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// Tokens returns the selected tokens in the order they were added.
func (s *Selection) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}
