package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/titlelab/internal/adapters/socket"
	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/domain/title"
	"github.com/corey/titlelab/internal/ports"
)

// ANSI color codes for terminal output. Emptied by disableColor.
var (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

func disableColor() {
	colorReset, colorBold, colorCyan, colorMagenta = "", "", "", ""
	colorGreen, colorYellow, colorGray = "", "", ""
}

var groupLabels = map[ports.Group]string{
	ports.GroupLifecycle: "生命周期",
	ports.GroupGoal:      "运营目标",
	ports.GroupOther:     "其他",
}

var groupOrder = []ports.Group{ports.GroupLifecycle, ports.GroupGoal, ports.GroupOther}

// formatHealth formats a HealthResult for terminal display.
func formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ titlelab daemon%s\n", colorBold, colorReset))
	sb.WriteString(fmt.Sprintf("  Status:     %s%s%s\n", colorGreen, h.Status, colorReset))
	sb.WriteString(fmt.Sprintf("  Dataset:    %s %s(%s)%s\n", h.Dataset, colorGray, h.Source, colorReset))
	sb.WriteString(fmt.Sprintf("  Keywords:   %d\n", h.KeywordCount))
	sb.WriteString(fmt.Sprintf("  History:    %d\n", h.HistoryCount))
	sb.WriteString(fmt.Sprintf("  Mode:       %s\n", h.Mode))
	if h.WebURL != "" {
		sb.WriteString(fmt.Sprintf("  Dashboard:  %s%s%s\n", colorCyan, h.WebURL, colorReset))
	}
	if h.Uptime != "" {
		sb.WriteString(fmt.Sprintf("  Uptime:     %s\n", h.Uptime))
	}
	return sb.String()
}

// formatImport formats an ImportResult for terminal display.
func formatImport(r *socket.ImportResult) string {
	var sb strings.Builder
	if r.Fallback {
		sb.WriteString(fmt.Sprintf("%s⚠ could not read file: %s%s\n", colorYellow, r.Warning, colorReset))
		sb.WriteString(fmt.Sprintf("%s⚡ sample dataset loaded%s │ %d keywords\n", colorBold, colorReset, r.Count))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("%s⚡ imported %s%s │ %d keywords │ %s\n", colorBold, r.Dataset, colorReset, r.Count, r.Source))
	return sb.String()
}

// formatKeywords formats a KeywordsResult as a ranked table.
//
//	⚡ 3/15 keywords │ sample
//	    1  厨房剪刀  8万 ~ 15万  点击 100.00%  转化 30% ~ 35%
func formatKeywords(r *socket.KeywordsResult, tokens []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d/%d keywords%s │ %s\n", colorBold, r.Count, r.Total, colorReset, r.Dataset))
	for _, k := range r.Keywords {
		sb.WriteString(formatKeywordRow(k, tokens))
	}
	return sb.String()
}

func formatKeywordRow(k ports.Keyword, tokens []string) string {
	return fmt.Sprintf("  %4d  %s  %s%s%s  %s点击 %s  转化 %s%s\n",
		k.Rank,
		paintSegments(keyword.Highlight(k.Text, tokens)),
		colorMagenta, k.PopularityRaw, colorReset,
		colorGray, k.ClickRate, k.ConversionRate, colorReset)
}

// formatAnalysis formats one analysis with its (optionally filtered) matches.
func formatAnalysis(a *ports.TitleAnalysis, f *socket.FilterResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %s%s\n", colorBold, a.Title, colorReset))
	sb.WriteString(fmt.Sprintf("  %s%s%s  %s[%s]%s\n", colorGray, a.ID, colorReset, colorCyan, a.Tag, colorReset))
	sb.WriteString(fmt.Sprintf("  Length:    %s\n", formatMetrics(a.Metrics)))
	sb.WriteString(fmt.Sprintf("  Tokens:    %s\n", formatTokens(a.Tokens, title.Select(tokensOf(f)))))
	sb.WriteString(fmt.Sprintf("  Coverage:  %s%s ~ %s%s │ %d keywords\n",
		colorMagenta, keyword.FormatPopularity(a.PopularityMin), keyword.FormatPopularity(a.PopularityMax), colorReset,
		len(a.Matched)))

	rows := a.Matched
	if f != nil && len(f.Tokens) > 0 {
		sb.WriteString(fmt.Sprintf("  Filtered:  %d/%d containing %s\n", f.Count, f.Total, strings.Join(f.Tokens, ", ")))
		rows = f.Keywords
	}
	for _, k := range rows {
		sb.WriteString(formatKeywordRow(k, tokensOf(f)))
	}
	return sb.String()
}

// formatFilter formats a FilterResult.
func formatFilter(r *socket.FilterResult) string {
	var sb strings.Builder
	label := "all tokens"
	if len(r.Tokens) > 0 {
		label = strings.Join(r.Tokens, ", ")
	}
	sb.WriteString(fmt.Sprintf("%s⚡ %d/%d keywords%s │ %s │ %s\n", colorBold, r.Count, r.Total, colorReset, r.ID, label))
	for _, k := range r.Keywords {
		sb.WriteString(formatKeywordRow(k, r.Tokens))
	}
	return sb.String()
}

// formatRecommend formats the recommendation board grouped by category.
func formatRecommend(r *socket.RecommendResult) string {
	byGroup := make(map[ports.Group][]ports.TitleAnalysis)
	for _, a := range r.Titles {
		byGroup[a.Group] = append(byGroup[a.Group], a)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d recommended titles%s\n", colorBold, r.Count, colorReset))
	for _, g := range groupOrder {
		items := byGroup[g]
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n  %s%s%s\n", colorBold, groupLabels[g], colorReset))
		for _, a := range items {
			sb.WriteString(formatSummary(a))
		}
	}
	return sb.String()
}

// formatHistory formats custom analyses, newest first.
func formatHistory(r *socket.HistoryResult) string {
	if r.Count == 0 {
		return "⚡ no analyses yet\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d analyses%s\n", colorBold, r.Count, colorReset))
	for _, a := range r.Entries {
		sb.WriteString(formatSummary(a))
	}
	return sb.String()
}

// formatSummary is the one-line form of an analysis.
//
//	lc-1  [新品期]  摩登主妇菜板…  1 词  2万 ~ 5万  58/60
func formatSummary(a ports.TitleAnalysis) string {
	return fmt.Sprintf("  %s%s%s  %s[%s]%s  %s\n      %d 词  %s%s ~ %s%s  %s\n",
		colorGray, a.ID, colorReset,
		colorCyan, a.Tag, colorReset,
		a.Title,
		len(a.Matched),
		colorMagenta, keyword.FormatPopularity(a.PopularityMin), keyword.FormatPopularity(a.PopularityMax), colorReset,
		formatMetrics(a.Metrics))
}

// formatLength formats the visual length check of a title.
func formatLength(t string, m ports.TitleMetrics) string {
	return fmt.Sprintf("%s⚡ %s%s\n  Length:  %s\n", colorBold, t, colorReset, formatMetrics(m))
}

func formatMetrics(m ports.TitleMetrics) string {
	if m.Valid {
		return fmt.Sprintf("%s%d/%d%s", colorGreen, m.Length, title.MaxVisualLength, colorReset)
	}
	return fmt.Sprintf("%s%d/%d over limit%s", colorYellow, m.Length, title.MaxVisualLength, colorReset)
}

// formatTokens joins tokens, marking the selected ones.
func formatTokens(tokens []string, sel *title.Selection) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if sel.Has(tok) {
			parts = append(parts, colorYellow+colorBold+tok+colorReset)
			continue
		}
		parts = append(parts, tok)
	}
	return strings.Join(parts, " │ ")
}

func paintSegments(segs []keyword.Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Highlight {
			sb.WriteString(colorYellow + colorBold + s.Text + colorReset)
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// selectedTokens turns repeated --token flags into a selection: a token
// given twice is deselected.
func selectedTokens(flags []string) []string {
	return title.Select(flags).Tokens()
}

func tokensOf(f *socket.FilterResult) []string {
	if f == nil {
		return nil
	}
	return f.Tokens
}
