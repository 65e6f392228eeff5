package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tdprofiler/internal/parser"
	"github.com/KaramelBytes/tdprofiler/internal/table"
)

func mustColumn(t *testing.T, tbl *table.Table, name string) *table.Column {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("column %q missing; have %v", name, tbl.Names())
	}
	return c
}

func TestParseFileCSV_Typing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "hop_harvest.csv")
	content := "date,plot,alpha_acids,moisture,organic\n" +
		"2024-08-10,A1,12.5,74,true\n" +
		"2024-08-12,A1,11.8,,False\n" +
		"2024-08-15,B3,10,68,TRUE\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumCols() != 5 {
		t.Fatalf("shape = %dx%d, want 3x5", tbl.NumRows(), tbl.NumCols())
	}
	want := map[string]table.Kind{
		"date":        table.Text,
		"plot":        table.Text,
		"alpha_acids": table.Float,
		"moisture":    table.Int,
		"organic":     table.Bool,
	}
	for name, kind := range want {
		if got := mustColumn(t, tbl, name).Storage(); got != kind {
			t.Errorf("%s storage = %v, want %v", name, got, kind)
		}
	}
	if !mustColumn(t, tbl, "moisture").Values[1].IsNull() {
		t.Fatalf("empty cell should be missing")
	}
}

func TestParseBytesTSVAndRagged(t *testing.T) {
	content := "\xEF\xBB\xBFa\tb\tc\n1\tx\n2\ty\tz\n"
	tbl, err := parser.ParseBytes("data.tsv", []byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tbl.Names(); len(got) != 3 || got[0] != "a" {
		t.Fatalf("names = %v", got)
	}
	if !mustColumn(t, tbl, "c").Values[0].IsNull() {
		t.Fatalf("short row should be padded with missing")
	}
	if _, err := parser.ParseBytes("x.csv", []byte("a,b\n1,2,3\n")); err == nil {
		t.Fatalf("expected error for row longer than header")
	}
}

func TestParseCSVHeaders(t *testing.T) {
	tbl, err := parser.ParseBytes("h.csv", []byte("id,id,\n1,2,3\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := tbl.Names()
	want := []string{"id", "id.1", "Unnamed: 2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestParseCSVNAValues(t *testing.T) {
	tbl, err := parser.ParseBytes("n.csv", []byte("v\n1\nNA\nnull\n2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := mustColumn(t, tbl, "v")
	if c.Storage() != table.Int {
		t.Fatalf("storage = %v, want int", c.Storage())
	}
	if len(c.NonNull(0)) != 2 {
		t.Fatalf("expected two present values")
	}
}

func TestParseEmptyAndUnsupported(t *testing.T) {
	if _, err := parser.ParseBytes("e.csv", nil); !errors.Is(err, parser.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
	if _, err := parser.ParseBytes("doc.pdf", []byte("x")); !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if parser.Supported("notes.txt") {
		t.Fatalf("txt should not be supported")
	}
}

func TestParseRecordsJSON(t *testing.T) {
	content := `[
		{"id": 1, "name": "ann", "score": 1.5, "active": true, "tags": ["a", "b"]},
		{"id": 2, "score": 2, "active": false, "extra": null},
		{"id": 3, "name": "cy", "score": null, "active": true, "extra": "x"}
	]`
	tbl, err := parser.ParseBytes("rows.json", []byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := tbl.Names()
	want := []string{"id", "name", "score", "active", "tags", "extra"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("rows = %d", tbl.NumRows())
	}
	if k := mustColumn(t, tbl, "id").Storage(); k != table.Int {
		t.Errorf("id storage = %v", k)
	}
	if k := mustColumn(t, tbl, "score").Storage(); k != table.Float {
		t.Errorf("score storage = %v", k)
	}
	if k := mustColumn(t, tbl, "active").Storage(); k != table.Bool {
		t.Errorf("active storage = %v", k)
	}
	if v := mustColumn(t, tbl, "tags").Values[0].String(); v != `["a","b"]` {
		t.Errorf("tags = %q", v)
	}
	if !mustColumn(t, tbl, "name").Values[1].IsNull() {
		t.Errorf("absent key should be missing")
	}
	if !mustColumn(t, tbl, "extra").Values[0].IsNull() {
		t.Errorf("key first seen later should be missing in earlier rows")
	}
}

func TestParseRecordsRejectsObject(t *testing.T) {
	if _, err := parser.ParseBytes("o.json", []byte(`{"a": 1}`)); err == nil {
		t.Fatalf("expected error for non-array document")
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"id", "city", "ok"},
		{1, "Oslo", true},
		{2, "Rome", false},
		{3, "Lima"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := parser.ParseBytes("book.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumCols() != 3 {
		t.Fatalf("shape = %dx%d", tbl.NumRows(), tbl.NumCols())
	}
	if k := mustColumn(t, tbl, "id").Storage(); k != table.Int {
		t.Errorf("id storage = %v", k)
	}
	if k := mustColumn(t, tbl, "ok").Storage(); k != table.Bool {
		t.Errorf("ok storage = %v", k)
	}
	if !mustColumn(t, tbl, "ok").Values[2].IsNull() {
		t.Errorf("short row should be padded")
	}

	if _, err := parser.ParseXLSX(buf.Bytes(), "Missing"); err == nil {
		t.Fatalf("expected error for unknown sheet")
	}
	if _, err := parser.ParseXLSX(buf.Bytes(), "Sheet1"); err != nil {
		t.Fatalf("named sheet: %v", err)
	}
}
