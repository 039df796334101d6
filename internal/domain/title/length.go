package title

import "github.com/corey/titlelab/internal/ports"

// MaxVisualLength is the marketplace's title limit in visual units.
const MaxVisualLength = 60

// VisualLength counts a title the way the marketplace does: every UTF-16
// code unit above ASCII (and the caret) counts two, everything else one.
// Characters outside the BMP are two code units and so count four.
func VisualLength(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r > 0xFFFF:
			n += 4
		case r > 127 || r == '^':
			n += 2
		default:
			n++
		}
	}
	return n
}

// Measure reports the visual length of s and whether it fits the limit.
func Measure(s string) ports.TitleMetrics {
	n := VisualLength(s)
	return ports.TitleMetrics{Length: n, Valid: n <= MaxVisualLength}
}
