package analysis

import (
	"strings"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// Mask reduces a string to its structure: lowercase ASCII letters become
// 'a', uppercase 'A', digits '9'. Other characters are kept.
func Mask(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteByte('a')
		case r >= 'A' && r <= 'Z':
			b.WriteByte('A')
		case r >= '0' && r <= '9':
			b.WriteByte('9')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AnalyzePatterns masks the first sampleSize non-null values of a text
// column and returns the top masks by frequency.
func AnalyzePatterns(c *table.Column, sampleSize, top int) Patterns {
	if c.Storage() != table.Text {
		return Patterns{}
	}
	sample := c.NonNull(sampleSize)
	if len(sample) == 0 {
		return Patterns{}
	}
	masks := make([]string, len(sample))
	for i, v := range sample {
		masks[i] = Mask(v.String())
	}
	freq := countFrequencies(masks, masks)
	if top > 0 && len(freq) > top {
		freq = freq[:top]
	}
	out := make([]PatternShare, 0, len(freq))
	for _, e := range freq {
		share := float64(e.count) / float64(len(sample))
		out = append(out, PatternShare{Pattern: e.label, Percentage: round2(share * 100)})
	}
	return Patterns{TopPatterns: out}
}
