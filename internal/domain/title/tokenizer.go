// Package title splits listing titles into vocabulary tokens and measures
// them against the marketplace's visual length limit.
package title

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// BuiltinWords are product-title words recognized even when no keyword in
// the dataset contains them.
var BuiltinWords = []string{
	"摩登", "主妇", "菜板", "防霉", "抗菌", "家用", "厨房", "专用", "切菜", "切",
	"水果", "小", "案板", "辅食", "塑料", "砧板", "德国", "进口", "不锈钢", "强力",
	"鸡骨剪", "杀鱼", "多功能", "张小泉", "大剪子", "锋利", "宿舍", "学生", "便携",
	"加厚", "实木", "竹制", "高端", "礼盒",
}

// Vocabulary is a fixed word list ordered longest first, so the first word
// that prefixes the remaining text is also the longest one that does.
type Vocabulary struct {
	words []string
}

// NewVocabulary builds a vocabulary from words. Empty and repeated words
// are dropped; words of equal length keep their given order.
func NewVocabulary(words []string) *Vocabulary {
	seen := make(map[string]bool, len(words))
	v := &Vocabulary{words: make([]string, 0, len(words))}
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		v.words = append(v.words, w)
	}
	sort.SliceStable(v.words, func(i, j int) bool {
		return utf8.RuneCountInString(v.words[i]) > utf8.RuneCountInString(v.words[j])
	})
	return v
}

// DefaultVocabulary is the given keyword texts followed by BuiltinWords.
func DefaultVocabulary(keywords []string) *Vocabulary {
	words := make([]string, 0, len(keywords)+len(BuiltinWords))
	words = append(words, keywords...)
	words = append(words, BuiltinWords...)
	return NewVocabulary(words)
}

// Tokenize splits text greedily: at each position the longest vocabulary
// word that starts there becomes a token; when none does, the next single
// character is emitted on its own. The tokens always concatenate back to
// text.
//
//	"摩登主妇菜板" -> ["摩登主妇", "菜板"]
//	"9.9包邮"      -> ["9", ".", "9", "包", "邮"]
func (v *Vocabulary) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	rest := text
	for len(rest) > 0 {
		tok := v.longestPrefix(rest)
		if tok == "" {
			_, size := utf8.DecodeRuneInString(rest)
			tok = rest[:size]
		}
		tokens = append(tokens, tok)
		rest = rest[len(tok):]
	}
	return tokens
}

func (v *Vocabulary) longestPrefix(s string) string {
	for _, w := range v.words {
		if strings.HasPrefix(s, w) {
			return w
		}
	}
	return ""
}
