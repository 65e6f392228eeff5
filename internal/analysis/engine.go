package analysis

import (
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

const (
	cellBytes       = 8
	textCellPadding = 49
	indexBytes      = 128
)

// Profiler runs the column analyzers with a fixed set of options. It holds
// no mutable state and may be shared between goroutines.
type Profiler struct {
	opts Options
}

// New returns a profiler; zero fields of opts take their defaults.
func New(opts Options) *Profiler {
	return &Profiler{opts: opts.normalized()}
}

// Options returns the effective options.
func (p *Profiler) Options() Options { return p.opts }

// ProfileDataset profiles t with DefaultOptions.
func ProfileDataset(t *table.Table) *DatasetProfile {
	return New(DefaultOptions()).Profile(t)
}

// Profile analyzes every column of t and scores the dataset. With Workers > 1
// columns are profiled concurrently; results keep declaration order.
func (p *Profiler) Profile(t *table.Table) *DatasetProfile {
	rows := t.NumRows()
	cols := t.Columns()
	out := &DatasetProfile{
		Summary: Summary{
			RowCount:       rows,
			ColumnCount:    len(cols),
			MemoryEstimate: MemoryEstimate(t),
			DuplicateRows:  DuplicateRows(t),
		},
		Columns: make([]ColumnProfile, len(cols)),
	}

	if p.opts.Workers > 1 && len(cols) > 1 {
		var g errgroup.Group
		g.SetLimit(p.opts.Workers)
		for i, c := range cols {
			i, c := i, c
			g.Go(func() error {
				out.Columns[i] = p.ProfileColumn(c, rows)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, c := range cols {
			out.Columns[i] = p.ProfileColumn(c, rows)
		}
	}

	scores := make([]int, len(out.Columns))
	for i, cp := range out.Columns {
		scores[i] = cp.QualityScore
		for _, is := range cp.Issues {
			switch is.Severity {
			case SeverityCritical:
				out.IssuesSummary.Critical++
			case SeverityWarning:
				out.IssuesSummary.Warning++
			case SeverityInfo:
				out.IssuesSummary.Info++
			}
		}
	}
	out.Summary.QualityScore, out.Summary.Grade = ScoreDataset(scores, out.Summary.DuplicateRows, rows)
	return out
}

// ProfileColumn runs type inference, completeness, statistics, outlier,
// pattern and semantic analysis on one column, then scores it.
func (p *Profiler) ProfileColumn(c *table.Column, totalRows int) ColumnProfile {
	typ := InferType(c, p.opts.TypeSampleSize)
	comp := AnalyzeCompleteness(c)
	st := ComputeStatistics(c, typ)
	outl := DetectOutliers(c, p.opts.OutlierFactor)
	pat := AnalyzePatterns(c, p.opts.PatternSampleSize, p.opts.TopPatterns)
	sem := DetectSemanticType(c, p.opts.SemanticSampleSize, p.opts.SemanticThreshold)

	score, issues := ScoreColumn(ScoreInput{
		NullPercentage: comp.NullPercentage,
		Outliers:       outl,
		Patterns:       pat,
		TotalRows:      totalRows,
	})

	distinct := DistinctCount(c)
	unique := c.Len() > 0 && distinct == c.Len()
	return ColumnProfile{
		Name:           c.Name,
		InferredType:   typ,
		SemanticType:   sem,
		NullCount:      comp.NullCount,
		NullPercentage: comp.NullPercentage,
		EmptyStrings:   comp.EmptyStrings,
		DistinctCount:  distinct,
		IsUnique:       unique,
		IsPotentialPK:  unique && comp.NullCount == 0,
		Statistics:     st,
		TopValues:      TopValues(c, p.opts.TopN),
		Outliers:       outl,
		Patterns:       pat,
		QualityScore:   score,
		Issues:         issues,
	}
}

// DuplicateRows counts rows equal to an earlier row across every column.
// Missing cells compare equal to each other.
func DuplicateRows(t *table.Table) int {
	if t.NumCols() == 0 {
		return 0
	}
	seen := make(map[string]struct{}, t.NumRows())
	dups := 0
	for i := 0; i < t.NumRows(); i++ {
		k := t.RowKey(i)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

// MemoryEstimate approximates the in-memory footprint of t in megabytes.
func MemoryEstimate(t *table.Table) float64 {
	total := indexBytes
	for _, c := range t.Columns() {
		for _, v := range c.Values {
			if v.Kind == table.Text {
				total += len(v.S) + textCellPadding
				continue
			}
			total += cellBytes
		}
	}
	return float64(total) / (1024 * 1024)
}
