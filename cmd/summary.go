package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/KaramelBytes/tdprofiler/internal/analysis"
)

const maxNameWidth = 28

var summaryHeader = []string{"COLUMN", "TYPE", "SEMANTIC", "NULL %", "DISTINCT", "SCORE", "ISSUES"}

// gradeStyle colors a grade or score by how worrying it is.
func gradeStyle(grade string) color.Color {
	switch grade {
	case "A", "B":
		return color.FgGreen
	case "C":
		return color.FgYellow
	}
	return color.FgRed
}

// writeSummary prints an aligned per-column table followed by totals.
func writeSummary(w io.Writer, name string, p *analysis.DatasetProfile) {
	s := p.Summary
	fmt.Fprintf(w, "%s  %d rows x %d columns, %.2f MB, %d duplicate rows\n",
		color.Bold.Sprint(name), s.RowCount, s.ColumnCount, s.MemoryEstimate, s.DuplicateRows)
	fmt.Fprintf(w, "Quality: %s\n\n", gradeStyle(s.Grade).Sprintf("%d/100 (%s)", s.QualityScore, s.Grade))

	rows := make([][]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		semantic := "-"
		if c.SemanticType != analysis.SemanticNone {
			semantic = string(c.SemanticType)
		}
		rows = append(rows, []string{
			runewidth.Truncate(c.Name, maxNameWidth, "…"),
			string(c.InferredType),
			semantic,
			strconv.FormatFloat(c.NullPercentage, 'f', 2, 64),
			strconv.Itoa(c.DistinctCount),
			strconv.Itoa(c.QualityScore),
			strconv.Itoa(len(c.Issues)),
		})
	}

	widths := make([]int, len(summaryHeader))
	for i, h := range summaryHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow(w, summaryHeader, widths)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	writeRow(w, sep, widths)
	for _, r := range rows {
		writeRow(w, r, widths)
	}

	is := p.IssuesSummary
	fmt.Fprintf(w, "\nIssues: %s critical, %s warning, %d info\n",
		color.FgRed.Sprint(is.Critical), color.FgYellow.Sprint(is.Warning), is.Info)
	for _, c := range p.Columns {
		for _, iss := range c.Issues {
			fmt.Fprintf(w, "  [%s] %s: %s\n", iss.Severity, c.Name, iss.Message)
		}
	}
}

func writeRow(w io.Writer, cells []string, widths []int) {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	fmt.Fprintln(w, b.String())
}

// summaryLine is the one-line status printed on stderr.
func summaryLine(name string, p *analysis.DatasetProfile) string {
	s := p.Summary
	return fmt.Sprintf("✓ Profiled %s: %d rows, %d columns, quality %s, %d issues",
		name, s.RowCount, s.ColumnCount,
		gradeStyle(s.Grade).Sprintf("%d (%s)", s.QualityScore, s.Grade), p.IssuesSummary.Total())
}
