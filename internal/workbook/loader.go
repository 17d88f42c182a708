// Package workbook reads simulation workbooks into named tables.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"invdash/internal/frame"
)

// ErrFileNotFound is returned when the workbook path does not exist.
var ErrFileNotFound = errors.New("workbook not found")

// Loader returns the requested sheets of a workbook. Sheets the workbook
// does not contain are left out of the result without error.
type Loader interface {
	Load(ctx context.Context, path string, names []string) (frame.NamedTableSet, error)
}

// ExcelLoader reads .xlsx files from disk on every call.
type ExcelLoader struct {
	logger *slog.Logger
}

// NewExcelLoader creates a loader.
func NewExcelLoader(logger *slog.Logger) *ExcelLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelLoader{logger: logger.With(slog.String("component", "workbook_loader"))}
}

// Load opens path and parses each requested sheet it contains.
func (l *ExcelLoader) Load(ctx context.Context, path string, names []string) (frame.NamedTableSet, error) {
	return l.read(ctx, path, func(sheets []string) []string {
		present := make(map[string]bool, len(sheets))
		for _, s := range sheets {
			present[s] = true
		}
		var wanted []string
		for _, n := range names {
			if present[n] {
				wanted = append(wanted, n)
			}
		}
		return wanted
	})
}

// LoadAll parses every sheet in the workbook.
func (l *ExcelLoader) LoadAll(ctx context.Context, path string) (frame.NamedTableSet, error) {
	return l.read(ctx, path, func(sheets []string) []string { return sheets })
}

// SheetNames lists the sheets of a workbook in file order.
func (l *ExcelLoader) SheetNames(path string) ([]string, error) {
	if _, err := stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func (l *ExcelLoader) read(ctx context.Context, path string, pick func([]string) []string) (frame.NamedTableSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := stat(path); err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	tables := make(frame.NamedTableSet)
	for _, name := range pick(f.GetSheetList()) {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", name, path, err)
		}
		tables[name] = frame.NewTable(name, rows)
	}

	l.logger.DebugContext(ctx, "workbook loaded",
		slog.String("path", path),
		slog.Int("sheets", len(tables)),
		slog.Duration("duration", time.Since(start)))
	return tables, nil
}

func stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat workbook %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return info, nil
}
