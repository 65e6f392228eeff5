package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// naValues are cell texts read as missing.
var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "#N/A": {}, "NaN": {}, "nan": {}, "-NaN": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {},
}

var boolLiterals = map[string]bool{
	"true": true, "True": true, "TRUE": true,
	"false": false, "False": false, "FALSE": false,
}

func isNA(s string) bool {
	_, ok := naValues[strings.TrimSpace(s)]
	return ok
}

// typeColumn picks one kind for a column of raw cells: Int when every
// present cell is an integer, Float when every one is a number, Bool for
// boolean literals, Text otherwise. Text columns keep the raw strings.
func typeColumn(name string, raw []string) *table.Column {
	allInt, allFloat, allBool := true, true, true
	for _, s := range raw {
		if isNA(s) {
			continue
		}
		s = strings.TrimSpace(s)
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := boolLiterals[s]; !ok {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	vals := make([]table.Value, len(raw))
	for i, s := range raw {
		if isNA(s) {
			vals[i] = table.NullValue()
			continue
		}
		t := strings.TrimSpace(s)
		switch {
		case allInt:
			n, _ := strconv.ParseInt(t, 10, 64)
			vals[i] = table.IntValue(n)
		case allFloat:
			f, _ := strconv.ParseFloat(t, 64)
			vals[i] = table.FloatValue(f)
		case allBool:
			vals[i] = table.BoolValue(boolLiterals[t])
		default:
			vals[i] = table.TextValue(s)
		}
	}
	return &table.Column{Name: name, Values: vals}
}

// headerNames cleans header cells, names blank headers "Unnamed: i" and
// suffixes repeated names with ".1", ".2" and so on.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for k := 1; used[name]; k++ {
			name = fmt.Sprintf("%s.%d", h, k)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// fromRows builds a typed table from a header and string records. Short
// rows are padded with missing cells; long rows are an error.
func fromRows(header []string, rows [][]string) (*table.Table, error) {
	names := headerNames(header)
	raw := make([][]string, len(names))
	for j := range raw {
		raw[j] = make([]string, len(rows))
	}
	for i, rec := range rows {
		if len(rec) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(rec), len(names))
		}
		for j := range names {
			if j < len(rec) {
				raw[j][i] = rec[j]
			}
		}
	}
	cols := make([]*table.Column, len(names))
	for j, name := range names {
		cols[j] = typeColumn(name, raw[j])
	}
	return table.New(cols...)
}
