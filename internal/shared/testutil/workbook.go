package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one sheet of a test workbook; the first row is the header.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// LongSheet builds a Time/item/Value sheet from (time, item, value) triples.
func LongSheet(name string, rows ...[]interface{}) Sheet {
	s := Sheet{Name: name, Rows: [][]interface{}{{"Time", "item", "Value"}}}
	s.Rows = append(s.Rows, rows...)
	return s
}

// WriteWorkbook saves the sheets as an .xlsx file at path, creating parent
// directories as needed.
func WriteWorkbook(t *testing.T, path string, sheets ...Sheet) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create workbook dir: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				t.Fatalf("failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("failed to add sheet %q: %v", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("bad cell: %v", err)
			}
			row := row
			if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
				t.Fatalf("failed to write row %d of %q: %v", r+1, s.Name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
}
