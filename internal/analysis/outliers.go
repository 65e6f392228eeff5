package analysis

import (
	"sort"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

const noThreshold = "N/A"

// DetectOutliers applies static IQR fences to numeric storage. Everything
// else reports a zero count without bounds.
func DetectOutliers(c *table.Column, factor float64) Outliers {
	if s := c.Storage(); s != table.Int && s != table.Float {
		return Outliers{Threshold: noThreshold}
	}
	data := numericValues(c)
	if len(data) == 0 {
		return Outliers{Threshold: noThreshold}
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - factor*iqr
	upper := q3 + factor*iqr
	count := 0
	for _, x := range data {
		if x < lower || x > upper {
			count++
		}
	}
	return Outliers{
		Count:      count,
		LowerBound: &lower,
		UpperBound: &upper,
		Threshold:  "IQR * " + formatPercent(factor),
	}
}

// quantile computes the q-th quantile (0..1) of sorted data using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	i := int(pos)
	frac := pos - float64(i)
	if i+1 < len(sorted) {
		return sorted[i] + frac*(sorted[i+1]-sorted[i])
	}
	return sorted[i]
}
