package parser

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

type xlsxParser struct {
	sheet string
}

func (xlsxParser) CanParse(filename string) bool {
	return hasExt(filename, ".xlsx", ".xlsm")
}

func (p xlsxParser) Parse(content []byte) (*table.Table, error) {
	return ParseXLSX(content, p.sheet)
}

// ParseXLSX reads one worksheet, the first when sheet is empty. The first
// row is the header.
func ParseXLSX(content []byte, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmpty
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	header := rows[0]
	body := rows[1:]
	// widen the header when data rows run past it
	for _, r := range body {
		for len(header) < len(r) {
			header = append(header, "")
		}
	}
	return fromRows(header, body)
}
