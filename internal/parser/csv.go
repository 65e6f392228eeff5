package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvParser struct {
	comma rune
}

func (csvParser) CanParse(filename string) bool {
	return hasExt(filename, ".csv", ".tsv")
}

func (p csvParser) Parse(content []byte) (*table.Table, error) {
	comma := p.comma
	if comma == 0 {
		comma = sniffDelimiter(content)
	}
	return ParseDelimited(content, comma)
}

// ParseDelimited reads delimited text with a header row.
func ParseDelimited(content []byte, comma rune) (*table.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = comma

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		rows = append(rows, rec)
	}
	return fromRows(header, rows)
}

// sniffDelimiter picks tab when the first line has more tabs than commas.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) {
		return '\t'
	}
	return ','
}
