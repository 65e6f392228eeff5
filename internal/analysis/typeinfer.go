package analysis

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// InferType classifies a column from its storage kind. Text columns whose
// first sampleSize non-null values all parse as dates are relabelled
// datetime.
func InferType(c *table.Column, sampleSize int) InferredType {
	switch c.Storage() {
	case table.Int:
		return TypeInteger
	case table.Float:
		return TypeFloat
	case table.Bool:
		return TypeBoolean
	case table.Time:
		return TypeDatetime
	}
	sample := c.NonNull(sampleSize)
	if len(sample) == 0 {
		return TypeString
	}
	for _, v := range sample {
		if _, ok := parseDate(v.String()); !ok {
			return TypeString
		}
	}
	return TypeDatetime
}

// parseDate attempts a permissive date parse. Plain numbers are not dates,
// except 8-digit yyyymmdd stamps.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		if len(s) != 8 || strings.IndexFunc(s, notDigit) >= 0 {
			return time.Time{}, false
		}
		t, err := time.Parse("20060102", s)
		return t, err == nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func notDigit(r rune) bool { return !unicode.IsDigit(r) }
