// Package synth generates synthetic keyword matches. It stands in for a real
// keyword backend when the workspace runs in synthetic mode: rows look like a
// marketplace export but their figures are random.
package synth

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/ports"
)

// Seeds are the words Large combines into keyword texts.
var Seeds = []string{
	"厨房", "剪刀", "菜板", "不锈钢", "家用", "强力", "多功能", "杀鱼", "骨头", "切菜",
	"抗菌", "防霉", "进口", "德国", "日本", "张小泉", "十八子", "锋利", "专用",
}

// Fallback is the keyword text used when a title has no substring to sample.
const Fallback = "厨房用品"

// ID bases keep generated rows apart from imported ones.
const (
	LargeIDBase    = 2000
	ForTitleIDBase = 3000
)

const (
	popularityFloor  = 1000
	popularitySpread = 50000
	bandWidth        = 20000
	minSubstring     = 2
	maxSubstring     = 5
)

// Generator produces synthetic rows from its own random source.
// Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator. A zero seed draws a random one.
func New(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Large returns count rows built from one seed word, or (70% of the time)
// two different seed words. Rows are sorted by popularity min, descending;
// ranks keep their generation order.
func (g *Generator) Large(count int) []ports.Keyword {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ports.Keyword, 0, max(count, 0))
	for i := 0; i < count; i++ {
		first := Seeds[g.rng.IntN(len(Seeds))]
		text := first
		if g.rng.Float64() > 0.3 {
			if second := Seeds[g.rng.IntN(len(Seeds))]; second != first {
				text += second
			}
		}
		out = append(out, g.row(LargeIDBase+i, i+1, text))
	}
	sortByPopularity(out)
	return out
}

// ForTitle returns count rows whose texts are random substrings (2 to 5
// characters) of title with whitespace removed, so every row occurs in the
// title. Rows are sorted by popularity min, descending, and ranked 1..count.
func (g *Generator) ForTitle(title string, count int) []ports.Keyword {
	subs := Substrings(title)

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ports.Keyword, 0, max(count, 0))
	for i := 0; i < count; i++ {
		text := Fallback
		if len(subs) > 0 {
			text = subs[g.rng.IntN(len(subs))]
		}
		out = append(out, g.row(ForTitleIDBase+i, i+1, text))
	}
	sortByPopularity(out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Substrings lists the distinct substrings of 2 to 5 characters of title
// (whitespace removed) in first-seen order.
func Substrings(title string) []string {
	clean := []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, title))

	seen := make(map[string]bool)
	var out []string
	for i := range clean {
		for n := minSubstring; n <= maxSubstring && i+n <= len(clean); n++ {
			s := string(clean[i : i+n])
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// row must be called with g.mu held.
func (g *Generator) row(id, rank int, text string) ports.Keyword {
	lo := int64(g.rng.IntN(popularitySpread) + popularityFloor)
	hi := lo + int64(g.rng.IntN(bandWidth))
	return ports.Keyword{
		ID:             id,
		Rank:           rank,
		Text:           text,
		PopularityRaw:  keyword.FormatWan(lo) + " ~ " + keyword.FormatWan(hi),
		PopularityMin:  lo,
		PopularityMax:  hi,
		ClickRate:      percent(g.rng.Float64() * 100),
		ConversionRate: percent(g.rng.Float64() * 40),
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func sortByPopularity(rows []ports.Keyword) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PopularityMin > rows[j].PopularityMin
	})
}
