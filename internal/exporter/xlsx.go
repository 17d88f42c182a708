package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// Table is one worksheet of an XLSX export.
type Table struct {
	Name    string
	Headers []string
	Records [][]string
}

// XLSXWriter writes tables into a workbook, one worksheet each.
type XLSXWriter struct{}

// NewXLSXWriter creates a writer.
func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

// Write saves tables to out. Fields that parse as numbers are stored as
// numbers so spreadsheet formulas work on them.
func (x *XLSXWriter) Write(out io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("xlsx export: no tables")
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(tables))
	for i, t := range tables {
		name := uniqueSheetName(t.Name, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("xlsx export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx export: add sheet %q: %w", name, err)
		}

		if err := writeRow(f, name, 1, t.Headers); err != nil {
			return err
		}
		for r, rec := range t.Records {
			if err := writeRow(f, name, r+2, rec); err != nil {
				return err
			}
		}
		if len(t.Headers) > 0 {
			if err := f.SetPanes(name, &excelize.Panes{
				Freeze:      true,
				YSplit:      1,
				TopLeftCell: "A2",
				ActivePane:  "bottomLeft",
			}); err != nil {
				return fmt.Errorf("xlsx export: freeze header of %q: %w", name, err)
			}
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("xlsx export: write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(fields))
	for i, field := range fields {
		if v, err := strconv.ParseFloat(field, 64); err == nil && field != "" {
			values[i] = v
			continue
		}
		values[i] = field
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx export: write row %d of %q: %w", row, sheet, err)
	}
	return nil
}

// uniqueSheetName strips characters Excel rejects, truncates to the sheet
// name limit and appends a counter on collision.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Sheet"
	}
	base := truncate(clean, maxSheetName)
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
