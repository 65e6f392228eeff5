package analysis

import (
	"sort"
	"unicode/utf8"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// ComputeStatistics returns numeric stats for integer and float columns and
// length stats for string columns. Other types, or columns with no values,
// yield an empty result.
func ComputeStatistics(c *table.Column, typ InferredType) Statistics {
	switch typ {
	case TypeInteger, TypeFloat:
		if ns, ok := numericStats(numericValues(c)); ok {
			return Statistics{Numeric: &ns}
		}
	case TypeString:
		if ts, ok := textStats(c.NonNull(0)); ok {
			return Statistics{Text: &ts}
		}
	}
	return Statistics{}
}

func numericValues(c *table.Column) []float64 {
	out := make([]float64, 0, c.Len())
	for _, v := range c.Values {
		if f, ok := v.Float64(); ok {
			out = append(out, f)
		}
	}
	return out
}

func numericStats(data []float64) (NumericStats, bool) {
	if len(data) == 0 {
		return NumericStats{}, false
	}
	var ns NumericStats
	ns.Min, _ = stats.Min(data)
	ns.Max, _ = stats.Max(data)
	ns.Median, _ = stats.Median(data)
	if len(data) < 2 {
		ns.Mean = data[0]
		return ns, true
	}
	// sample standard deviation (n-1)
	ns.Mean, ns.Std = stat.MeanStdDev(data, nil)
	return ns, true
}

func textStats(values []table.Value) (TextStats, bool) {
	if len(values) == 0 {
		return TextStats{}, false
	}
	ts := TextStats{MinLength: -1}
	total := 0
	for _, v := range values {
		n := utf8.RuneCountInString(v.String())
		total += n
		if ts.MinLength < 0 || n < ts.MinLength {
			ts.MinLength = n
		}
		if n > ts.MaxLength {
			ts.MaxLength = n
		}
	}
	ts.MeanLength = float64(total) / float64(len(values))
	return ts, true
}

type freqEntry struct {
	label string
	count int
}

// countFrequencies tallies labels by key, keeping first-seen order.
func countFrequencies(keys, labels []string) []freqEntry {
	m := orderedmap.NewOrderedMap[string, *freqEntry]()
	for i, k := range keys {
		if e, ok := m.Get(k); ok {
			e.count++
			continue
		}
		m.Set(k, &freqEntry{label: labels[i], count: 1})
	}
	out := make([]freqEntry, 0, m.Len())
	for el := m.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value)
	}
	// stable keeps first-seen order among equal counts
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// TopValues returns the topN most frequent non-null values. Percentages are
// relative to the full column length, nulls included.
func TopValues(c *table.Column, topN int) []TopValue {
	values := c.NonNull(0)
	keys := make([]string, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		keys[i] = v.Key()
		labels[i] = v.String()
	}
	freq := countFrequencies(keys, labels)
	if topN > 0 && len(freq) > topN {
		freq = freq[:topN]
	}
	out := make([]TopValue, 0, len(freq))
	n := c.Len()
	for _, e := range freq {
		out = append(out, TopValue{
			Value:      e.label,
			Count:      e.count,
			Percentage: round2(float64(e.count) / float64(n) * 100),
		})
	}
	return out
}

func round2(x float64) float64 { return roundTo(x, 2) }

func roundTo(x float64, places int) float64 {
	r, err := stats.Round(x, places)
	if err != nil {
		return x
	}
	return r
}

// DistinctCount counts unique non-null values.
func DistinctCount(c *table.Column) int {
	seen := make(map[string]struct{}, c.Len())
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		seen[v.Key()] = struct{}{}
	}
	return len(seen)
}
