package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/tdprofiler/internal/analysis"
)

// Markdown renders a compact sectioned summary of the profile.
func Markdown(title string, p *analysis.DatasetProfile) string {
	var b strings.Builder
	s := p.Summary
	b.WriteString("[DATASET SUMMARY]\n\n")
	if title != "" {
		b.WriteString(fmt.Sprintf("- File: %s\n", safeVal(title)))
	}
	b.WriteString(fmt.Sprintf("- Rows: %d\n", s.RowCount))
	b.WriteString(fmt.Sprintf("- Columns: %d\n", s.ColumnCount))
	b.WriteString(fmt.Sprintf("- Memory: %.2f MB\n", s.MemoryEstimate))
	b.WriteString(fmt.Sprintf("- Duplicate rows: %d\n", s.DuplicateRows))
	b.WriteString(fmt.Sprintf("- Quality score: %d (grade %s)\n\n", s.QualityScore, s.Grade))

	b.WriteString("[COLUMNS]\n\n")
	b.WriteString("| Column | Type | Semantic | Nulls | Distinct | Score |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, c := range p.Columns {
		sem := string(c.SemanticType)
		if sem == "" {
			sem = "-"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %d (%.1f%%) | %d | %d |\n",
			safeName(c.Name), c.InferredType, sem, c.NullCount, c.NullPercentage, c.DistinctCount, c.QualityScore))
	}
	b.WriteString("\n")

	for _, c := range p.Columns {
		line := columnDetail(c)
		if line == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(c.Name), line))
	}

	b.WriteString("\n[ISSUES]\n\n")
	is := p.IssuesSummary
	b.WriteString(fmt.Sprintf("Critical %d, warning %d, info %d.\n\n", is.Critical, is.Warning, is.Info))
	for _, c := range p.Columns {
		for _, issue := range c.Issues {
			b.WriteString(fmt.Sprintf("- **%s** %s (%s): %s\n", issue.Severity, safeName(c.Name), issue.Type, issue.Message))
		}
	}
	return b.String()
}

func columnDetail(c analysis.ColumnProfile) string {
	var parts []string
	if ns := c.Statistics.Numeric; ns != nil {
		parts = append(parts, fmt.Sprintf("min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g",
			ns.Min, ns.Max, ns.Mean, ns.Median, ns.Std))
	}
	if ts := c.Statistics.Text; ts != nil {
		parts = append(parts, fmt.Sprintf("length %d..%d (mean %.1f)", ts.MinLength, ts.MaxLength, ts.MeanLength))
	}
	if c.Outliers.Count > 0 && c.Outliers.LowerBound != nil && c.Outliers.UpperBound != nil {
		parts = append(parts, fmt.Sprintf("%d outliers outside [%.4g, %.4g]",
			c.Outliers.Count, *c.Outliers.LowerBound, *c.Outliers.UpperBound))
	}
	if tp := c.Patterns.TopPatterns; len(tp) > 0 {
		parts = append(parts, fmt.Sprintf("top pattern `%s` (%.2f%%)", safeVal(tp[0].Pattern), tp[0].Percentage))
	}
	if len(c.TopValues) > 0 {
		vals := make([]string, 0, 3)
		for i, v := range c.TopValues {
			if i == 3 {
				break
			}
			vals = append(vals, fmt.Sprintf("%s(%d)", safeVal(v.Value), v.Count))
		}
		parts = append(parts, "top: "+strings.Join(vals, ", "))
	}
	return strings.Join(parts, "; ")
}

// HTML renders the Markdown summary as a standalone HTML page.
func HTML(title string, p *analysis.DatasetProfile) []byte {
	md := Markdown(title, p)
	ps := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	if title == "" {
		title = "Data quality report"
	}
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(md), ps, r)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
