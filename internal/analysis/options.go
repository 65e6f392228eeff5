package analysis

// Options controls sampling and presentation limits of the profiler.
type Options struct {
	// TypeSampleSize caps how many non-null text values the datetime
	// fallback of type inference parses.
	TypeSampleSize int
	// PatternSampleSize caps how many non-null values are masked for
	// structural pattern analysis.
	PatternSampleSize int
	// SemanticSampleSize caps how many non-null values are tested against
	// the semantic type rules.
	SemanticSampleSize int
	// SemanticThreshold is the match ratio a rule must strictly exceed.
	SemanticThreshold float64
	// TopN limits the top value frequency table.
	TopN int
	// TopPatterns limits the number of reported structural masks.
	TopPatterns int
	// OutlierFactor scales the IQR to build the outlier fences.
	OutlierFactor float64
	// Workers > 1 profiles columns concurrently. Output is identical to a
	// sequential run.
	Workers int
}

// DefaultOptions returns the standard profiling limits.
func DefaultOptions() Options {
	return Options{
		TypeSampleSize:     100,
		PatternSampleSize:  500,
		SemanticSampleSize: 100,
		SemanticThreshold:  0.5,
		TopN:               10,
		TopPatterns:        5,
		OutlierFactor:      1.5,
		Workers:            1,
	}
}

// normalized fills zero or negative fields with defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.TypeSampleSize <= 0 {
		o.TypeSampleSize = d.TypeSampleSize
	}
	if o.PatternSampleSize <= 0 {
		o.PatternSampleSize = d.PatternSampleSize
	}
	if o.SemanticSampleSize <= 0 {
		o.SemanticSampleSize = d.SemanticSampleSize
	}
	if o.SemanticThreshold <= 0 {
		o.SemanticThreshold = d.SemanticThreshold
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.TopPatterns <= 0 {
		o.TopPatterns = d.TopPatterns
	}
	if o.OutlierFactor <= 0 {
		o.OutlierFactor = d.OutlierFactor
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}
