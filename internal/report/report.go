// Package report renders a dataset profile for export.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tdprofiler/internal/analysis"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported report format %q (use json, csv, markdown or html)", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/json"
}

// Extension returns the file extension for f, dot included.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Render encodes p in the given format. title labels the document for the
// Markdown and HTML renderings.
func Render(f Format, title string, p *analysis.DatasetProfile) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(p)
	case FormatCSV:
		return CSV(p)
	case FormatMarkdown:
		return []byte(Markdown(title, p)), nil
	case FormatHTML:
		return HTML(title, p), nil
	}
	return nil, fmt.Errorf("unsupported report format %q", f)
}

// JSON encodes the profile with two-space indentation.
func JSON(p *analysis.DatasetProfile) ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return append(b, '\n'), nil
}

var csvHeader = []string{
	"name", "type", "semantic_type", "null_count", "null_percentage",
	"distinct_count", "quality_score", "issues",
}

// CSV writes one row per column. Issue texts are joined with "; ".
func CSV(p *analysis.DatasetProfile) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, c := range p.Columns {
		msgs := make([]string, len(c.Issues))
		for i, is := range c.Issues {
			msgs[i] = is.Message
		}
		rec := []string{
			c.Name,
			string(c.InferredType),
			string(c.SemanticType),
			strconv.Itoa(c.NullCount),
			strconv.FormatFloat(c.NullPercentage, 'f', 2, 64),
			strconv.Itoa(c.DistinctCount),
			strconv.Itoa(c.QualityScore),
			strings.Join(msgs, "; "),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
