package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		values []Value
		want   Kind
	}{
		{"ints with nulls", []Value{IntValue(1), NullValue(), IntValue(3)}, Int},
		{"ints and floats", []Value{IntValue(1), FloatValue(2.5)}, Float},
		{"nan is missing", []Value{FloatValue(1), FloatValue(math.NaN())}, Float},
		{"bools", []Value{BoolValue(true), BoolValue(false)}, Bool},
		{"times", []Value{TimeValue(ts), NullValue()}, Time},
		{"text", []Value{TextValue("a"), TextValue("")}, Text},
		{"mixed", []Value{IntValue(1), TextValue("x")}, Text},
		{"bool and int", []Value{BoolValue(true), IntValue(1)}, Text},
		{"all null", []Value{NullValue(), NullValue()}, Text},
		{"empty", nil, Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Column{Name: "c", Values: tt.values}
			assert.Equal(t, tt.want, c.Storage())
		})
	}
}

func TestValueKeyAndString(t *testing.T) {
	assert.Equal(t, IntValue(1).Key(), FloatValue(1.0).Key())
	assert.NotEqual(t, IntValue(1).Key(), TextValue("1").Key())
	assert.Equal(t, NullValue().Key(), FloatValue(math.NaN()).Key())

	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "3.0", FloatValue(3).String())
	assert.Equal(t, "-20.0", FloatValue(-20).String())
	assert.Equal(t, "1e+16", FloatValue(1e16).String())
	assert.Equal(t, "1e-05", FloatValue(0.00001).String())
	assert.Equal(t, "inf", FloatValue(math.Inf(1)).String())
	assert.Equal(t, "True", BoolValue(true).String())
	assert.Equal(t, "", NullValue().String())
	assert.Equal(t, "2024-01-02 03:04:05", TimeValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)).String())
}

func TestNewValidates(t *testing.T) {
	_, err := New(
		&Column{Name: "a", Values: []Value{IntValue(1)}},
		&Column{Name: "a", Values: []Value{IntValue(2)}},
	)
	require.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = New(
		&Column{Name: "a", Values: []Value{IntValue(1)}},
		&Column{Name: "b", Values: []Value{IntValue(1), IntValue(2)}},
	)
	require.Error(t, err)

	tbl, err := New(
		&Column{Name: "a", Values: []Value{IntValue(1), IntValue(2)}},
		&Column{Name: "b", Values: []Value{TextValue("x"), NullValue()}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
	assert.Equal(t, []string{"a", "b"}, tbl.Names())

	c, ok := tbl.Column("b")
	require.True(t, ok)
	assert.Len(t, c.NonNull(0), 1)
	assert.Equal(t, []Value{IntValue(2), NullValue()}, tbl.Row(1))
}

func TestRowKey(t *testing.T) {
	tbl := MustNew(
		&Column{Name: "a", Values: []Value{IntValue(1), FloatValue(1), IntValue(2)}},
		&Column{Name: "b", Values: []Value{NullValue(), NullValue(), NullValue()}},
	)
	assert.Equal(t, tbl.RowKey(0), tbl.RowKey(1))
	assert.NotEqual(t, tbl.RowKey(0), tbl.RowKey(2))
}

func TestEmptyTable(t *testing.T) {
	tbl, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 0, tbl.NumCols())
}
