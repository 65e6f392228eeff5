package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the dynamic type of a single cell.
type Kind uint8

const (
	Null Kind = iota
	Int
	Float
	Bool
	Time
	Text
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	case Text:
		return "text"
	}
	return "unknown"
}

// Value is a tagged cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	T    time.Time
	S    string
}

func NullValue() Value { return Value{Kind: Null} }
func IntValue(i int64) Value { return Value{Kind: Int, I: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, F: f} }
func BoolValue(b bool) Value { return Value{Kind: Bool, B: b} }
func TimeValue(t time.Time) Value { return Value{Kind: Time, T: t} }
func TextValue(s string) Value { return Value{Kind: Text, S: s} }

// IsNull reports whether the cell is missing. A NaN float counts as missing.
func (v Value) IsNull() bool {
	return v.Kind == Null || (v.Kind == Float && math.IsNaN(v.F))
}

// IsNumeric reports whether the cell holds an Int or a non-NaN Float.
func (v Value) IsNumeric() bool {
	return v.Kind == Int || (v.Kind == Float && !math.IsNaN(v.F))
}

// Float64 returns the numeric value of an Int or Float cell.
func (v Value) Float64() (float64, bool) {
	switch v.Kind {
	case Int:
		return float64(v.I), true
	case Float:
		if math.IsNaN(v.F) {
			return 0, false
		}
		return v.F, true
	}
	return 0, false
}

// String renders the cell as text. Missing cells render as "".
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Float:
		if math.IsNaN(v.F) {
			return ""
		}
		return formatFloat(v.F)
	case Bool:
		if v.B {
			return "True"
		}
		return "False"
	case Time:
		return v.T.Format("2006-01-02 15:04:05")
	case Text:
		return v.S
	}
	return ""
}

// formatFloat renders f the way Python's repr does: whole values keep a
// trailing ".0" and very large or small magnitudes use exponent form.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if a := math.Abs(f); a != 0 && (a >= 1e16 || a < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Key returns a canonical equality key. Int 1 and Float 1.0 share a key and
// every missing cell shares the null key.
func (v Value) Key() string {
	if v.IsNull() {
		return "\x00null"
	}
	switch v.Kind {
	case Int, Float:
		f, _ := v.Float64()
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	case Bool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case Time:
		return "t:" + strconv.FormatInt(v.T.UnixNano(), 10)
	}
	return "s:" + v.S
}
