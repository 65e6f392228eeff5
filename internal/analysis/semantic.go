package analysis

import (
	"regexp"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

type semanticRule struct {
	typ     SemanticType
	pattern *regexp.Regexp
}

// semanticRules are evaluated in order; the first to clear the threshold
// wins. Anchors match the whole value (a trailing newline fails) and \d
// matches ASCII digits only.
var semanticRules = []semanticRule{
	{SemanticEmail, regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)},
	{SemanticURL, regexp.MustCompile(`^https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+`)},
	{SemanticPhone, regexp.MustCompile(`^\+?1?\d{9,15}$`)},
	{SemanticZipcode, regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
}

// DetectSemanticType tests the first sampleSize non-null values of a text
// column against each rule and returns the first whose match ratio exceeds
// threshold.
func DetectSemanticType(c *table.Column, sampleSize int, threshold float64) SemanticType {
	if c.Storage() != table.Text {
		return SemanticNone
	}
	sample := c.NonNull(sampleSize)
	if len(sample) == 0 {
		return SemanticNone
	}
	texts := make([]string, len(sample))
	for i, v := range sample {
		texts[i] = v.String()
	}
	for _, rule := range semanticRules {
		if matchRatio(rule.pattern, texts) > threshold {
			return rule.typ
		}
	}
	return SemanticNone
}

func matchRatio(re *regexp.Regexp, texts []string) float64 {
	hits := 0
	for _, s := range texts {
		if re.MatchString(s) {
			hits++
		}
	}
	return float64(hits) / float64(len(texts))
}
