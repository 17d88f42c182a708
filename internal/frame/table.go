package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names of the long-form sheet layout.
const (
	ColTime  = "Time"
	ColItem  = "item"
	ColValue = "Value"
	ColAgent = "Agent"
)

var (
	// ErrMalformedTable is returned when a sheet lacks the long-form columns
	// or carries cells that cannot be parsed.
	ErrMalformedTable = errors.New("malformed table")
	// ErrUnknownColumn is returned when an operation names a column the
	// long-form layout does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// Table is a sheet as read from a workbook: a header row and raw cell text.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NamedTableSet maps sheet names to their tables.
type NamedTableSet map[string]*Table

// NewTable builds a table from raw rows where the first row is the header.
func NewTable(name string, raw [][]string) *Table {
	t := &Table{Name: name}
	if len(raw) == 0 {
		return t
	}
	t.Columns = make([]string, len(raw[0]))
	for i, c := range raw[0] {
		t.Columns[i] = strings.TrimSpace(c)
	}
	t.Rows = raw[1:]
	return t
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// cell returns the trimmed value at (row, col); short rows read as empty.
func (t *Table) cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ColumnValues parses every non-empty cell of a column as a number.
func (t *Table) ColumnValues(name string) ([]float64, error) {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil, fmt.Errorf("%w: sheet %q has no %q column", ErrMalformedTable, t.Name, name)
	}
	values := make([]float64, 0, len(t.Rows))
	for i := range t.Rows {
		raw := t.cell(i, col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q row %d: %q is not numeric", ErrMalformedTable, t.Name, i+2, raw)
		}
		values = append(values, v)
	}
	return values, nil
}

// Record is one long-form observation.
type Record struct {
	Time  int     `json:"time"`
	Item  string  `json:"item"`
	Value float64 `json:"value"`
	Agent string  `json:"agent,omitempty"`
}

// LongFrame is an ordered sequence of records from one sheet.
type LongFrame struct {
	Name     string
	HasAgent bool
	Records  []Record
}

// Len returns the number of records.
func (f *LongFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Records)
}

// Items returns the distinct item labels in first-seen order.
func (f *LongFrame) Items() []string {
	seen := make(map[string]bool)
	var items []string
	for _, r := range f.Records {
		if !seen[r.Item] {
			seen[r.Item] = true
			items = append(items, r.Item)
		}
	}
	return items
}

// HasItem reports whether any record carries the given item label.
func (f *LongFrame) HasItem(item string) bool {
	for _, r := range f.Records {
		if r.Item == item {
			return true
		}
	}
	return false
}

// with returns an empty frame sharing f's identity.
func (f *LongFrame) with(records []Record) *LongFrame {
	return &LongFrame{Name: f.Name, HasAgent: f.HasAgent, Records: records}
}

// FromTable converts a raw sheet into a LongFrame. Time, item and Value are
// required; Agent is picked up when present. Blank rows are skipped and a
// blank Value cell reads as NaN.
func FromTable(t *Table) (*LongFrame, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", ErrMalformedTable)
	}
	timeCol := t.ColumnIndex(ColTime)
	itemCol := t.ColumnIndex(ColItem)
	valueCol := t.ColumnIndex(ColValue)
	agentCol := t.ColumnIndex(ColAgent)

	var missing []string
	if timeCol < 0 {
		missing = append(missing, ColTime)
	}
	if itemCol < 0 {
		missing = append(missing, ColItem)
	}
	if valueCol < 0 {
		missing = append(missing, ColValue)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: sheet %q missing columns %s", ErrMalformedTable, t.Name, strings.Join(missing, ", "))
	}

	f := &LongFrame{Name: t.Name, HasAgent: agentCol >= 0}
	f.Records = make([]Record, 0, len(t.Rows))
	for i := range t.Rows {
		rawTime := t.cell(i, timeCol)
		item := t.cell(i, itemCol)
		rawValue := t.cell(i, valueCol)
		if rawTime == "" && item == "" && rawValue == "" {
			continue
		}

		tm, err := strconv.ParseFloat(rawTime, 64)
		if err != nil || tm != math.Trunc(tm) {
			return nil, fmt.Errorf("%w: sheet %q row %d: time %q is not an integer", ErrMalformedTable, t.Name, i+2, rawTime)
		}

		value := math.NaN()
		if rawValue != "" {
			value, err = strconv.ParseFloat(rawValue, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: sheet %q row %d: value %q is not numeric", ErrMalformedTable, t.Name, i+2, rawValue)
			}
		}

		rec := Record{Time: int(tm), Item: item, Value: value}
		if agentCol >= 0 {
			rec.Agent = t.cell(i, agentCol)
		}
		f.Records = append(f.Records, rec)
	}
	return f, nil
}
