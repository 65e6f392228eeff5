package analysis

import "github.com/KaramelBytes/tdprofiler/internal/table"

// Completeness is the null accounting of a column.
type Completeness struct {
	NullCount      int
	NullPercentage float64
	EmptyStrings   int
}

// AnalyzeCompleteness counts missing cells. Empty strings are only counted
// for text storage.
func AnalyzeCompleteness(c *table.Column) Completeness {
	var out Completeness
	n := c.Len()
	for _, v := range c.Values {
		if v.IsNull() {
			out.NullCount++
		}
	}
	if n > 0 {
		out.NullPercentage = float64(out.NullCount) / float64(n) * 100
	}
	if c.Storage() != table.Text {
		return out
	}
	for _, v := range c.Values {
		if v.Kind == table.Text && v.S == "" {
			out.EmptyStrings++
		}
	}
	return out
}
