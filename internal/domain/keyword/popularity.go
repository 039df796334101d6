// Package keyword holds the keyword-table logic: popularity parsing and
// formatting, substring matching of keywords against a title, coverage
// aggregation and token filtering.
package keyword

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Chinese magnitude suffixes used by marketplace exports.
const (
	wan = 10000     // 万
	yi  = 100000000 // 亿
)

// ParseNumber parses a popularity figure such as "8万", "1.5亿" or "1,500".
// Commas are ignored, the leading numeric prefix is parsed and the result is
// floored. Anything unparsable yields 0; values beyond int64 saturate.
func ParseNumber(s string) int64 {
	if s == "" {
		return 0
	}
	clean := strings.ReplaceAll(s, ",", "")
	multiplier := 1.0
	switch {
	case strings.Contains(clean, "万"):
		multiplier = wan
		clean = strings.Replace(clean, "万", "", 1)
	case strings.Contains(clean, "亿"):
		multiplier = yi
		clean = strings.Replace(clean, "亿", "", 1)
	}

	v, ok := leadingFloat(clean)
	if !ok {
		return 0
	}
	return clampInt64(math.Floor(v * multiplier))
}

// clampInt64 converts f, saturating at the int64 bounds. Out-of-range float
// conversions are implementation-defined in Go.
func clampInt64(f float64) int64 {
	switch {
	case f >= 1<<63:
		return math.MaxInt64
	case f <= -(1 << 63):
		return math.MinInt64
	}
	return int64(f)
}

// ParseRange parses an export range such as "8万 ~ 15万" into its bounds.
// A value without "~" (or with more than one) is treated as min == max.
func ParseRange(s string) (lo, hi int64) {
	parts := strings.Split(s, "~")
	if len(parts) == 2 {
		return ParseNumber(strings.TrimSpace(parts[0])), ParseNumber(strings.TrimSpace(parts[1]))
	}
	v := ParseNumber(s)
	return v, v
}

// FormatPopularity renders n back into the export style: "1.5亿", "8万",
// "12.5万" or the plain integer below 10000.
func FormatPopularity(n int64) string {
	switch {
	case n >= yi:
		return dropZeroTenth(fixed1(n, yi)) + "亿"
	case n >= wan:
		return dropZeroTenth(fixed1(n, wan)) + "万"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// fixed1 renders n/div with one decimal, rounding half up on the exact
// quotient. n must be non-negative; n*10 is never formed so math.MaxInt64
// renders without overflow.
func fixed1(n, div int64) string {
	tenths := n/div*10 + (n%div*10+div/2)/div
	return strconv.FormatInt(tenths/10, 10) + "." + strconv.FormatInt(tenths%10, 10)
}

func dropZeroTenth(s string) string {
	return strings.Replace(s, ".0", "", 1)
}

// leadingFloat parses the longest decimal prefix of s after leading
// whitespace: optional sign, digits, optional fraction, optional exponent.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// ErrRange still yields ±Inf or 0, which ParseNumber saturates.
	return v, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// FormatWan renders n in 万 with exactly one decimal, e.g. 15000 -> "1.5万"
// and 10000 -> "1.0万". Used for generated range labels.
func FormatWan(n int64) string {
	return fixed1(n, wan) + "万"
}
