package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return hasExt(filename, ".json")
}

func (jsonParser) Parse(content []byte) (*table.Table, error) {
	return ParseRecords(content)
}

// ParseRecords reads a JSON array of objects. Columns appear in first-seen
// key order and absent keys become missing cells.
func ParseRecords(content []byte) (*table.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	cols := orderedmap.NewOrderedMap[string, []table.Value]()
	rows := 0
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("record %d: %w", rows, err)
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", rows, err)
			}
			key, _ := tok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", rows, key, err)
			}
			vals, ok := cols.Get(key)
			if !ok {
				vals = make([]table.Value, rows, rows+1)
			}
			if len(vals) > rows {
				// repeated key inside one object; last one wins
				vals = vals[:rows]
			}
			cols.Set(key, append(vals, jsonValue(raw)))
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("record %d: %w", rows, err)
		}
		rows++
		for el := cols.Front(); el != nil; el = el.Next() {
			if len(el.Value) < rows {
				cols.Set(el.Key, append(el.Value, table.NullValue()))
			}
		}
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	out := make([]*table.Column, 0, cols.Len())
	for el := cols.Front(); el != nil; el = el.Next() {
		out = append(out, &table.Column{Name: el.Key, Values: el.Value})
	}
	return table.New(out...)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func jsonValue(raw json.RawMessage) table.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return table.NullValue()
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return table.TextValue(s)
		}
	case 't', 'f':
		return table.BoolValue(raw[0] == 't')
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return table.TextValue(buf.String())
		}
	default:
		n := json.Number(raw)
		if i, err := n.Int64(); err == nil {
			return table.IntValue(i)
		}
		if f, err := n.Float64(); err == nil {
			return table.FloatValue(f)
		}
	}
	return table.TextValue(string(raw))
}
