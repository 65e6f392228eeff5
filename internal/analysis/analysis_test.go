package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

func ints(xs ...int64) []table.Value {
	out := make([]table.Value, len(xs))
	for i, x := range xs {
		out[i] = table.IntValue(x)
	}
	return out
}

func texts(xs ...string) []table.Value {
	out := make([]table.Value, len(xs))
	for i, x := range xs {
		out[i] = table.TextValue(x)
	}
	return out
}

func col(name string, vals []table.Value) *table.Column {
	return &table.Column{Name: name, Values: vals}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name string
		vals []table.Value
		want InferredType
	}{
		{"integers", ints(1, 2, 3), TypeInteger},
		{"integers with null", append(ints(1, 2), table.NullValue()), TypeInteger},
		{"floats", []table.Value{table.IntValue(1), table.FloatValue(2.5)}, TypeFloat},
		{"booleans", []table.Value{table.BoolValue(true), table.BoolValue(false)}, TypeBoolean},
		{"date text", texts("2024-01-01", "2024-02-15", "2023-12-31"), TypeDatetime},
		{"partly dates", texts("2024-01-01", "hello"), TypeString},
		{"words", texts("x", "y", "z"), TypeString},
		{"all null", []table.Value{table.NullValue(), table.NullValue()}, TypeString},
		{"phone numbers", texts("5551234567", "5559876543", "5550001111"), TypeString},
		{"short ids", texts("1001", "1002", "1003"), TypeString},
		{"decimal text", texts("12.5", "3.25"), TypeString},
		{"compact dates", texts("20240101", "20231231"), TypeDatetime},
		{"bad compact date", texts("20241399"), TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(col("c", tt.vals), 100))
		})
	}
}

func TestProfileColumnPhoneText(t *testing.T) {
	p := New(DefaultOptions())
	cp := p.ProfileColumn(col("phone", texts("5551234567", "5559876543", "5550001111")), 3)
	assert.Equal(t, TypeString, cp.InferredType)
	assert.Equal(t, SemanticPhone, cp.SemanticType)
	require.NotNil(t, cp.Statistics.Text)
	assert.Equal(t, 10, cp.Statistics.Text.MaxLength)
}

func TestCompleteness(t *testing.T) {
	c := AnalyzeCompleteness(col("c", []table.Value{table.TextValue("a"), table.TextValue(""), table.NullValue(), table.TextValue("")}))
	assert.Equal(t, 1, c.NullCount)
	assert.InDelta(t, 25.0, c.NullPercentage, 1e-9)
	assert.Equal(t, 2, c.EmptyStrings)

	num := AnalyzeCompleteness(col("n", append(ints(1), table.NullValue())))
	assert.Equal(t, 0, num.EmptyStrings)
	assert.InDelta(t, 50.0, num.NullPercentage, 1e-9)

	empty := AnalyzeCompleteness(col("e", nil))
	assert.Zero(t, empty.NullPercentage)
}

func TestNumericStatistics(t *testing.T) {
	st := ComputeStatistics(col("n", ints(1, 2, 3, 4)), TypeInteger)
	require.NotNil(t, st.Numeric)
	assert.Equal(t, 1.0, st.Numeric.Min)
	assert.Equal(t, 4.0, st.Numeric.Max)
	assert.InDelta(t, 2.5, st.Numeric.Mean, 1e-9)
	assert.InDelta(t, 2.5, st.Numeric.Median, 1e-9)
	assert.InDelta(t, 1.2909944, st.Numeric.Std, 1e-6)

	single := ComputeStatistics(col("n", ints(7)), TypeInteger)
	require.NotNil(t, single.Numeric)
	assert.Equal(t, 0.0, single.Numeric.Std)
	assert.Equal(t, 7.0, single.Numeric.Mean)

	assert.True(t, ComputeStatistics(col("n", []table.Value{table.NullValue()}), TypeInteger).Empty())
}

func TestTextStatistics(t *testing.T) {
	st := ComputeStatistics(col("s", append(texts("ab", "abcd", "héllo"), table.NullValue())), TypeString)
	require.NotNil(t, st.Text)
	assert.Equal(t, 2, st.Text.MinLength)
	assert.Equal(t, 5, st.Text.MaxLength)
	assert.InDelta(t, 11.0/3.0, st.Text.MeanLength, 1e-9)

	assert.True(t, ComputeStatistics(col("b", []table.Value{table.BoolValue(true)}), TypeBoolean).Empty())
}

func TestTopValues(t *testing.T) {
	c := col("c", []table.Value{
		table.TextValue("b"), table.TextValue("a"), table.TextValue("a"), table.NullValue(), table.TextValue("c"),
	})
	top := TopValues(c, 10)
	require.Len(t, top, 3)
	assert.Equal(t, TopValue{Value: "a", Count: 2, Percentage: 40}, top[0])
	// ties keep first-seen order
	assert.Equal(t, "b", top[1].Value)
	assert.Equal(t, "c", top[2].Value)
	assert.Equal(t, 20.0, top[1].Percentage)

	assert.Len(t, TopValues(c, 1), 1)
	assert.Empty(t, TopValues(col("e", nil), 10))
}

func TestDetectOutliers(t *testing.T) {
	o := DetectOutliers(col("n", ints(1, 2, 3, 4, 5, 100)), 1.5)
	assert.Equal(t, 1, o.Count)
	require.NotNil(t, o.LowerBound)
	require.NotNil(t, o.UpperBound)
	assert.InDelta(t, -1.5, *o.LowerBound, 1e-9)
	assert.InDelta(t, 8.5, *o.UpperBound, 1e-9)
	assert.Less(t, *o.UpperBound, 100.0)
	assert.Equal(t, "IQR * 1.5", o.Threshold)

	text := DetectOutliers(col("s", texts("a", "b")), 1.5)
	assert.Equal(t, Outliers{Threshold: "N/A"}, text)
	b, err := json.Marshal(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"threshold":"N/A"}`, string(b))

	assert.Equal(t, Outliers{Threshold: "N/A"}, DetectOutliers(col("n", []table.Value{table.NullValue()}), 1.5))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 100}
	assert.InDelta(t, 2.25, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 4.75, quantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 1.0, quantile(sorted, 0))
	assert.Equal(t, 100.0, quantile(sorted, 1))
	assert.Equal(t, 0.0, quantile(nil, 0.5))
}

func TestMaskAndPatterns(t *testing.T) {
	assert.Equal(t, "AAA-999", Mask("ABC-123"))
	assert.Equal(t, "AAA-999", Mask("XYZ-999"))
	assert.Equal(t, "999-AAA", Mask("123-ABC"))
	assert.Equal(t, "Aaaa Aa!", Mask("John Do!"))

	p := AnalyzePatterns(col("s", texts("ABC-123", "XYZ-999", "123-ABC")), 500, 5)
	require.Len(t, p.TopPatterns, 2)
	assert.Equal(t, PatternShare{Pattern: "AAA-999", Percentage: 66.67}, p.TopPatterns[0])
	assert.Equal(t, PatternShare{Pattern: "999-AAA", Percentage: 33.33}, p.TopPatterns[1])

	b, err := json.Marshal(AnalyzePatterns(col("n", ints(1, 2)), 500, 5))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestPatternsSampleIsFirstRows(t *testing.T) {
	vals := append(texts("aa", "aa"), texts("99", "99", "99")...)
	p := AnalyzePatterns(col("s", vals), 2, 5)
	require.Len(t, p.TopPatterns, 1)
	assert.Equal(t, "aa", p.TopPatterns[0].Pattern)
	assert.Equal(t, 100.0, p.TopPatterns[0].Percentage)
}

func TestDetectSemanticType(t *testing.T) {
	tests := []struct {
		name string
		vals []table.Value
		want SemanticType
	}{
		{"email", texts("test@example.com", "admin@domain.org", "invalid"), SemanticEmail},
		{"url", texts("https://example.com/a", "http://x.org", "nope"), SemanticURL},
		{"phone", texts("+14155552671", "4155552671", "n/a"), SemanticPhone},
		{"zipcode", texts("12345", "12345-6789", "abc"), SemanticZipcode},
		{"half is not enough", texts("test@example.com", "invalid"), SemanticNone},
		{"trailing newline", texts("12345\n", "54321\n"), SemanticNone},
		{"non-ascii digits", texts("١٢٣٤٥", "٥٤٣٢١"), SemanticNone},
		{"numeric storage", ints(12345, 54321), SemanticNone},
		{"empty", []table.Value{table.NullValue()}, SemanticNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSemanticType(col("c", tt.vals), 100, 0.5))
		})
	}
}

func TestScoreColumn(t *testing.T) {
	score, issues := ScoreColumn(ScoreInput{TotalRows: 10})
	assert.Equal(t, 100, score)
	assert.Empty(t, issues)

	score, issues = ScoreColumn(ScoreInput{NullPercentage: 25, TotalRows: 4})
	assert.Equal(t, 75, score)
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{Severity: SeverityCritical, Type: IssueCompleteness, Message: "25.0% null values detected"}, issues[0])

	score, issues = ScoreColumn(ScoreInput{NullPercentage: 10, TotalRows: 10})
	assert.Equal(t, 90, score)
	assert.Equal(t, SeverityWarning, issues[0].Severity)

	score, _ = ScoreColumn(ScoreInput{NullPercentage: 90, TotalRows: 10})
	assert.Equal(t, 60, score)

	score, issues = ScoreColumn(ScoreInput{Outliers: Outliers{Count: 1}, TotalRows: 100})
	assert.Equal(t, 98, score)
	assert.Equal(t, Issue{Severity: SeverityWarning, Type: IssueValidity, Message: "1 outliers detected"}, issues[0])

	score, _ = ScoreColumn(ScoreInput{Outliers: Outliers{Count: 5}, TotalRows: 0})
	assert.Equal(t, 80, score)

	score, issues = ScoreColumn(ScoreInput{
		Patterns: Patterns{TopPatterns: []PatternShare{{"AAA-999", 66.67}, {"999-AAA", 33.33}}},
	})
	assert.Equal(t, 90, score)
	assert.Equal(t, Issue{
		Severity: SeverityInfo,
		Type:     IssueConsistency,
		Message:  "Multiple structural patterns detected (top pattern: 66.67%)",
	}, issues[0])

	score, issues = ScoreColumn(ScoreInput{
		Patterns: Patterns{TopPatterns: []PatternShare{{"aa", 85}, {"99", 15}}},
	})
	assert.Equal(t, 100, score)
	assert.Empty(t, issues)
}

func TestScoreColumnSequence(t *testing.T) {
	score, issues := ScoreColumn(ScoreInput{
		NullPercentage: 50,
		Outliers:       Outliers{Count: 50},
		Patterns:       Patterns{TopPatterns: []PatternShare{{"a", 50}, {"9", 50}}},
		TotalRows:      100,
	})
	assert.Equal(t, 30, score)
	assert.Len(t, issues, 3)
}

func TestGrade(t *testing.T) {
	cases := map[int]string{100: "A", 90: "A", 89: "B", 80: "B", 79: "C", 70: "C", 69: "D", 60: "D", 59: "F", 0: "F"}
	for score, want := range cases {
		assert.Equal(t, want, Grade(score), "score %d", score)
	}
}

func TestScoreDataset(t *testing.T) {
	score, grade := ScoreDataset(nil, 0, 0)
	assert.Equal(t, 0, score)
	assert.Equal(t, "F", grade)

	score, grade = ScoreDataset([]int{100, 80}, 0, 10)
	assert.Equal(t, 90, score)
	assert.Equal(t, "A", grade)

	prev := 101
	for dups := 0; dups <= 10; dups++ {
		s, _ := ScoreDataset([]int{95, 85}, dups, 10)
		assert.LessOrEqual(t, s, prev)
		prev = s
	}
	s, _ := ScoreDataset([]int{100}, 10, 10)
	assert.Equal(t, 90, s)
	s, _ = ScoreDataset([]int{5}, 10, 10)
	assert.Equal(t, 0, s)
}

func sampleTable() *table.Table {
	return table.MustNew(
		col("id", ints(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)),
		col("amount", []table.Value{
			table.IntValue(1), table.IntValue(2), table.IntValue(3), table.IntValue(4), table.IntValue(5),
			table.IntValue(100), table.NullValue(), table.IntValue(3), table.IntValue(2), table.NullValue(),
		}),
		col("email", texts(
			"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com",
			"f@example.com", "g@example.com", "h@example.com", "bad", "",
		)),
	)
}

func TestProfileDataset(t *testing.T) {
	p := ProfileDataset(sampleTable())

	assert.Equal(t, 10, p.Summary.RowCount)
	assert.Equal(t, 3, p.Summary.ColumnCount)
	assert.Equal(t, 0, p.Summary.DuplicateRows)
	assert.Greater(t, p.Summary.MemoryEstimate, 0.0)

	id, ok := p.Column("id")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, id.InferredType)
	assert.Equal(t, 100, id.QualityScore)
	assert.True(t, id.IsUnique)
	assert.True(t, id.IsPotentialPK)
	assert.Equal(t, 10, id.DistinctCount)

	amount, ok := p.Column("amount")
	require.True(t, ok)
	assert.Less(t, amount.QualityScore, 100)
	assert.Equal(t, 2, amount.NullCount)
	assert.False(t, amount.IsUnique)
	assert.Equal(t, 1, amount.Outliers.Count)

	email, ok := p.Column("email")
	require.True(t, ok)
	assert.Equal(t, SemanticEmail, email.SemanticType)
	assert.Equal(t, TypeString, email.InferredType)
	assert.Equal(t, 1, email.EmptyStrings)

	assert.Greater(t, p.IssuesSummary.Total(), 0)
	var crit, warn, info int
	for _, c := range p.Columns {
		assert.GreaterOrEqual(t, c.QualityScore, 0)
		assert.LessOrEqual(t, c.QualityScore, 100)
		assert.GreaterOrEqual(t, c.NullPercentage, 0.0)
		assert.LessOrEqual(t, c.NullPercentage, 100.0)
		assert.Equal(t, c.DistinctCount == p.Summary.RowCount, c.IsUnique)
		for _, is := range c.Issues {
			switch is.Severity {
			case SeverityCritical:
				crit++
			case SeverityWarning:
				warn++
			case SeverityInfo:
				info++
			}
		}
	}
	assert.Equal(t, IssuesSummary{Critical: crit, Warning: warn, Info: info}, p.IssuesSummary)
}

func TestProfileCleanColumnScoresHundred(t *testing.T) {
	p := ProfileDataset(table.MustNew(col("n", ints(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))))
	assert.Equal(t, 100, p.Summary.QualityScore)
	assert.Equal(t, "A", p.Summary.Grade)
	assert.Zero(t, p.IssuesSummary.Total())
}

func TestProfileEmptyDataset(t *testing.T) {
	p := ProfileDataset(table.MustNew())
	assert.Equal(t, 0, p.Summary.QualityScore)
	assert.Equal(t, "F", p.Summary.Grade)
	assert.Empty(t, p.Columns)
}

func TestDuplicateRows(t *testing.T) {
	tbl := table.MustNew(
		col("a", []table.Value{table.IntValue(1), table.IntValue(1), table.IntValue(2), table.NullValue(), table.NullValue()}),
		col("b", texts("x", "x", "x", "y", "y")),
	)
	assert.Equal(t, 2, DuplicateRows(tbl))
}

func TestProfileDeterministic(t *testing.T) {
	first, err := json.Marshal(ProfileDataset(sampleTable()))
	require.NoError(t, err)
	second, err := json.Marshal(ProfileDataset(sampleTable()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	opts := DefaultOptions()
	opts.Workers = 4
	parallel, err := json.Marshal(New(opts).Profile(sampleTable()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(parallel))
}

func TestProfileJSONShape(t *testing.T) {
	tbl := table.MustNew(col("flag", []table.Value{table.BoolValue(true), table.BoolValue(false)}))
	b, err := json.Marshal(ProfileDataset(tbl))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	summary := raw["summary"].(map[string]any)
	assert.Contains(t, summary, "quality_grade")
	assert.Contains(t, summary, "memory_estimate")

	c := raw["columns"].([]any)[0].(map[string]any)
	assert.Nil(t, c["semantic_type"])
	assert.Contains(t, c, "semantic_type")
	assert.Equal(t, map[string]any{}, c["stats"])
	assert.Equal(t, map[string]any{}, c["patterns"])
	assert.Equal(t, "boolean", c["inferred_type"])

	var back DatasetProfile
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, SemanticNone, back.Columns[0].SemanticType)
}

func TestOptionsNormalized(t *testing.T) {
	p := New(Options{TopN: 3})
	assert.Equal(t, 3, p.Options().TopN)
	assert.Equal(t, 500, p.Options().PatternSampleSize)
	assert.Equal(t, 1, p.Options().Workers)
}
