package keyword

import (
	"math"
	"sort"
	"strings"

	"github.com/corey/titlelab/internal/ports"
)

// Coverage is the summed popularity band of the keywords a title covers.
type Coverage struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Match returns the keywords whose text occurs in title, in dataset order.
// Empty keyword texts never match.
func Match(title string, keywords []ports.Keyword) []ports.Keyword {
	var out []ports.Keyword
	for _, k := range keywords {
		if k.Text != "" && strings.Contains(title, k.Text) {
			out = append(out, k)
		}
	}
	return out
}

// Aggregate sums the popularity bounds of keywords. Sums saturate at the
// int64 bounds instead of wrapping.
func Aggregate(keywords []ports.Keyword) Coverage {
	var c Coverage
	for _, k := range keywords {
		c.Min = addSat(c.Min, k.PopularityMin)
		c.Max = addSat(c.Max, k.PopularityMax)
	}
	return c
}

func addSat(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// FilterByTokens narrows keywords to the rows containing at least one of
// tokens. With no tokens selected the input is returned unchanged.
func FilterByTokens(keywords []ports.Keyword, tokens []string) []ports.Keyword {
	if len(tokens) == 0 {
		return keywords
	}
	var out []ports.Keyword
	for _, k := range keywords {
		for _, tok := range tokens {
			if strings.Contains(k.Text, tok) {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// Matcher answers Match for one dataset using a multi-pattern automaton, so a
// title is scanned once instead of once per keyword. Results are identical
// to Match.
type Matcher struct {
	pm       ports.PatternMatcher
	keywords []ports.Keyword
	byText   map[string][]int // keyword text -> dataset positions
}

// NewMatcher loads the dataset's keyword texts into pm.
func NewMatcher(pm ports.PatternMatcher, keywords []ports.Keyword) *Matcher {
	m := &Matcher{
		pm:       pm,
		keywords: keywords,
		byText:   make(map[string][]int, len(keywords)),
	}
	patterns := make([]string, 0, len(keywords))
	for i, k := range keywords {
		if k.Text == "" {
			continue
		}
		if _, seen := m.byText[k.Text]; !seen {
			patterns = append(patterns, k.Text)
		}
		m.byText[k.Text] = append(m.byText[k.Text], i)
	}
	pm.Rebuild(patterns)
	return m
}

// Match returns the dataset keywords that occur in title, in dataset order.
func (m *Matcher) Match(title string) []ports.Keyword {
	hits := m.pm.Match(title)
	if len(hits) == 0 {
		return nil
	}
	var positions []int
	for _, text := range hits {
		positions = append(positions, m.byText[text]...)
	}
	sort.Ints(positions)

	out := make([]ports.Keyword, 0, len(positions))
	for _, p := range positions {
		out = append(out, m.keywords[p])
	}
	return out
}
