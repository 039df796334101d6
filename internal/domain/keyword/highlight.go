package keyword

import (
	"regexp"
	"strings"
)

// Segment is one run of text, marked when it is a highlighted token.
type Segment struct {
	Text      string `json:"text"`
	Highlight bool   `json:"highlight"`
}

// Highlight splits text around occurrences of tokens. Duplicate and empty
// tokens are ignored; where tokens compete at the same position the one
// selected first wins.
func Highlight(text string, tokens []string) []Segment {
	var alts []string
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		alts = append(alts, regexp.QuoteMeta(tok))
	}
	if len(alts) == 0 {
		return []Segment{{Text: text}}
	}

	re := regexp.MustCompile(strings.Join(alts, "|"))
	var out []Segment
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Highlight: true})
		last = loc[1]
	}
	if last < len(text) || len(out) == 0 {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Preview splits title around every occurrence of keyword, marking the
// keyword runs. A keyword that does not occur yields the title as one plain
// segment.
func Preview(title, keyword string) []Segment {
	if keyword == "" || !strings.Contains(title, keyword) {
		return []Segment{{Text: title}}
	}
	parts := strings.Split(title, keyword)
	out := make([]Segment, 0, len(parts)*2)
	for i, part := range parts {
		if part != "" {
			out = append(out, Segment{Text: part})
		}
		if i < len(parts)-1 {
			out = append(out, Segment{Text: keyword, Highlight: true})
		}
	}
	return out
}
