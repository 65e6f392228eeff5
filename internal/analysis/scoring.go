package analysis

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

const (
	maxNullPenalty      = 40.0
	criticalNullPct     = 20.0
	outlierMultiplier   = 2.0
	maxOutlierPenalty   = 20.0
	patternTopPctMin    = 80.0
	patternPenalty      = 10.0
	duplicateMultiplier = 2.0
	maxDuplicatePenalty = 10.0
)

// ScoreInput carries the measurements a column score is derived from.
type ScoreInput struct {
	NullPercentage float64
	Outliers       Outliers
	Patterns       Patterns
	TotalRows      int
}

// ScoreColumn starts from 100 and deducts completeness, validity and
// consistency penalties in that order.
func ScoreColumn(in ScoreInput) (int, []Issue) {
	score := 100.0
	issues := []Issue{}

	if in.NullPercentage > 0 {
		score -= math.Min(in.NullPercentage, maxNullPenalty)
		sev := SeverityWarning
		if in.NullPercentage > criticalNullPct {
			sev = SeverityCritical
		}
		issues = append(issues, Issue{
			Severity: sev,
			Type:     IssueCompleteness,
			Message:  fmt.Sprintf("%s%% null values detected", formatPercent(roundTo(in.NullPercentage, 1))),
		})
	}

	if in.Outliers.Count > 0 {
		rows := in.TotalRows
		if rows < 1 {
			rows = 1
		}
		pct := float64(in.Outliers.Count) / float64(rows) * 100
		score -= math.Min(pct*outlierMultiplier, maxOutlierPenalty)
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Type:     IssueValidity,
			Message:  fmt.Sprintf("%d outliers detected", in.Outliers.Count),
		})
	}

	if tp := in.Patterns.TopPatterns; len(tp) > 1 {
		top := tp[0].Percentage
		if top < patternTopPctMin {
			score -= patternPenalty
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Type:     IssueConsistency,
				Message:  fmt.Sprintf("Multiple structural patterns detected (top pattern: %s%%)", formatPercent(top)),
			})
		}
	}

	return clampScore(score), issues
}

// ScoreDataset averages column scores and deducts a duplicate-row penalty.
// An empty column list scores 0.
func ScoreDataset(columnScores []int, duplicateRows, totalRows int) (int, string) {
	if len(columnScores) == 0 {
		return 0, "F"
	}
	xs := make([]float64, len(columnScores))
	for i, s := range columnScores {
		xs[i] = float64(s)
	}
	avg := stat.Mean(xs, nil)
	penalty := 0.0
	if totalRows > 0 {
		dupPct := float64(duplicateRows) / float64(totalRows) * 100
		penalty = math.Min(dupPct*duplicateMultiplier, maxDuplicatePenalty)
	}
	final := clampScore(avg - penalty)
	return final, Grade(final)
}

// Grade maps a score to a letter using inclusive lower bounds.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}

func clampScore(x float64) int {
	s := int(math.Floor(x))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// formatPercent renders a float the short way but always keeps one decimal,
// so 25 prints as "25.0" and 66.67 as "66.67".
func formatPercent(x float64) string {
	if x == math.Trunc(x) && !math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 1, 64)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
