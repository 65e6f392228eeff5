// Package analysis profiles a table column by column and scores the
// result. Every function is pure; the same table and options always yield
// the same profile.
package analysis

import (
	"encoding/json"
)

// InferredType is the logical type assigned to a column.
type InferredType string

const (
	TypeInteger  InferredType = "integer"
	TypeFloat    InferredType = "float"
	TypeBoolean  InferredType = "boolean"
	TypeDatetime InferredType = "datetime"
	TypeString   InferredType = "string"
)

// SemanticType is the business meaning detected in text values. The zero
// value means none and encodes as JSON null.
type SemanticType string

const (
	SemanticNone    SemanticType = ""
	SemanticEmail   SemanticType = "email"
	SemanticURL     SemanticType = "url"
	SemanticPhone   SemanticType = "phone"
	SemanticZipcode SemanticType = "zipcode"
)

func (s SemanticType) MarshalJSON() ([]byte, error) {
	if s == SemanticNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *SemanticType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = SemanticNone
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = SemanticType(v)
	return nil
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type IssueType string

const (
	IssueCompleteness IssueType = "completeness"
	IssueValidity     IssueType = "validity"
	IssueConsistency  IssueType = "consistency"
)

// Issue is a flagged quality problem on one column.
type Issue struct {
	Severity Severity  `json:"severity"`
	Type     IssueType `json:"type"`
	Message  string    `json:"issue"`
}

// TopValue is one row of the value frequency table.
type TopValue struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// NumericStats summarizes numeric columns.
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// TextStats summarizes string lengths, counted in characters.
type TextStats struct {
	MinLength  int     `json:"min_length"`
	MaxLength  int     `json:"max_length"`
	MeanLength float64 `json:"mean_length"`
}

// Statistics holds at most one of Numeric or Text. An empty value encodes as
// {}; otherwise the populated block is flattened into the object.
type Statistics struct {
	Numeric *NumericStats
	Text    *TextStats
}

func (s Statistics) MarshalJSON() ([]byte, error) {
	switch {
	case s.Numeric != nil:
		return json.Marshal(s.Numeric)
	case s.Text != nil:
		return json.Marshal(s.Text)
	}
	return []byte("{}"), nil
}

func (s *Statistics) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	*s = Statistics{}
	if _, ok := probe["mean"]; ok {
		s.Numeric = &NumericStats{}
		return json.Unmarshal(b, s.Numeric)
	}
	if _, ok := probe["mean_length"]; ok {
		s.Text = &TextStats{}
		return json.Unmarshal(b, s.Text)
	}
	return nil
}

// Empty reports whether no statistics were computed.
func (s Statistics) Empty() bool { return s.Numeric == nil && s.Text == nil }

// Outliers is the IQR fence result. Bounds are present only for numeric
// storage.
type Outliers struct {
	Count      int      `json:"count"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
	Threshold  string   `json:"threshold"`
}

// PatternShare is one structural mask and its share of the sample.
type PatternShare struct {
	Pattern    string  `json:"pattern"`
	Percentage float64 `json:"percentage"`
}

// Patterns lists the most frequent masks. It encodes as {} when nothing was
// sampled.
type Patterns struct {
	TopPatterns []PatternShare `json:"top_patterns,omitempty"`
}

// ColumnProfile is the full result for a single column.
type ColumnProfile struct {
	Name           string       `json:"name"`
	InferredType   InferredType `json:"inferred_type"`
	SemanticType   SemanticType `json:"semantic_type"`
	NullCount      int          `json:"null_count"`
	NullPercentage float64      `json:"null_percentage"`
	EmptyStrings   int          `json:"empty_string_count"`
	DistinctCount  int          `json:"distinct_count"`
	IsUnique       bool         `json:"is_unique"`
	IsPotentialPK  bool         `json:"is_potential_pk"`
	Statistics     Statistics   `json:"stats"`
	TopValues      []TopValue   `json:"top_values"`
	Outliers       Outliers     `json:"outliers"`
	Patterns       Patterns     `json:"patterns"`
	QualityScore   int          `json:"quality_score"`
	Issues         []Issue      `json:"issues"`
}

// Summary carries dataset level counts and scores.
type Summary struct {
	RowCount       int     `json:"row_count"`
	ColumnCount    int     `json:"column_count"`
	MemoryEstimate float64 `json:"memory_estimate"`
	DuplicateRows  int     `json:"duplicate_rows"`
	QualityScore   int     `json:"quality_score"`
	Grade          string  `json:"quality_grade"`
}

// IssuesSummary counts column issues by severity.
type IssuesSummary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Total returns the number of issues of any severity.
func (s IssuesSummary) Total() int { return s.Critical + s.Warning + s.Info }

// DatasetProfile is the complete profiling result.
type DatasetProfile struct {
	Summary       Summary         `json:"summary"`
	Columns       []ColumnProfile `json:"columns"`
	IssuesSummary IssuesSummary   `json:"issues_summary"`
}

// Column returns the profile of the named column.
func (p *DatasetProfile) Column(name string) (*ColumnProfile, bool) {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i], true
		}
	}
	return nil, false
}
