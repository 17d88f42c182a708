package frame

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DuplicateKeyError reports an (index, category) pair seen more than once
// while pivoting.
type DuplicateKeyError struct {
	Frame    string
	Index    int
	Category string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate entry in %q for %s=%d, category %q", e.Frame, ColTime, e.Index, e.Category)
}

// Cell is one wide-frame value. An absent (index, category) combination is
// an invalid cell, which is not the same as a present NaN.
type Cell struct {
	Value float64
	Valid bool
}

// Number returns a valid cell.
func Number(v float64) Cell { return Cell{Value: v, Valid: true} }

// Empty reports whether the cell has nothing to plot.
func (c Cell) Empty() bool {
	return !c.Valid || math.IsNaN(c.Value) || math.IsInf(c.Value, 0)
}

// MarshalJSON writes empty cells as null since JSON has no NaN or Inf.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Empty() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(c.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON reads null as an invalid cell.
func (c *Cell) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Cell{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Number(v)
	return nil
}

// WideFrame is a pivoted frame: one row per distinct index value in
// ascending order, one column per category in first-seen order.
type WideFrame struct {
	Name     string   `json:"name"`
	IndexCol string   `json:"index_column"`
	Category string   `json:"category_column"`
	Index    []int    `json:"index"`
	Columns  []string `json:"columns"`
	Cells    [][]Cell `json:"cells"`
}

// Len returns the number of rows.
func (w *WideFrame) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Index)
}

// Column returns the cells of a named column, or nil.
func (w *WideFrame) Column(name string) []Cell {
	for j, c := range w.Columns {
		if c != name {
			continue
		}
		col := make([]Cell, len(w.Index))
		for i := range w.Index {
			col[i] = w.Cells[i][j]
		}
		return col
	}
	return nil
}

// RowMean averages the non-empty cells of each row. Rows with nothing to
// average are invalid.
func (w *WideFrame) RowMean() []Cell {
	out := make([]Cell, len(w.Index))
	for i, row := range w.Cells {
		var sum float64
		var n int
		for _, c := range row {
			if c.Empty() {
				continue
			}
			sum += c.Value
			n++
		}
		if n > 0 {
			out[i] = Number(sum / float64(n))
		}
	}
	return out
}

// categoryOf returns the accessor for a category column.
func categoryOf(name string) (func(Record) string, error) {
	switch name {
	case ColItem:
		return func(r Record) string { return r.Item }, nil
	case ColAgent:
		return func(r Record) string { return r.Agent }, nil
	default:
		return nil, fmt.Errorf("%w: %q cannot be a category", ErrUnknownColumn, name)
	}
}

func checkIndexValue(index, value string) error {
	if index != ColTime {
		return fmt.Errorf("%w: %q cannot be an index", ErrUnknownColumn, index)
	}
	if value != ColValue {
		return fmt.Errorf("%w: %q cannot be a value column", ErrUnknownColumn, value)
	}
	return nil
}

// Pivot reshapes a long frame into a wide one. A repeated (index, category)
// pair is a *DuplicateKeyError; a missing one leaves an invalid cell.
func Pivot(f *LongFrame, index, category, value string) (*WideFrame, error) {
	if err := checkIndexValue(index, value); err != nil {
		return nil, err
	}
	catOf, err := categoryOf(category)
	if err != nil {
		return nil, err
	}

	colPos := make(map[string]int)
	var columns []string
	rowSet := make(map[int]bool)
	type key struct {
		time int
		cat  string
	}
	seen := make(map[key]float64, len(f.Records))

	for _, r := range f.Records {
		cat := catOf(r)
		k := key{time: r.Time, cat: cat}
		if _, dup := seen[k]; dup {
			return nil, &DuplicateKeyError{Frame: f.Name, Index: r.Time, Category: cat}
		}
		seen[k] = r.Value
		if _, ok := colPos[cat]; !ok {
			colPos[cat] = len(columns)
			columns = append(columns, cat)
		}
		rowSet[r.Time] = true
	}

	rows := make([]int, 0, len(rowSet))
	for t := range rowSet {
		rows = append(rows, t)
	}
	sort.Ints(rows)

	w := &WideFrame{
		Name:     f.Name,
		IndexCol: index,
		Category: category,
		Index:    rows,
		Columns:  columns,
		Cells:    make([][]Cell, len(rows)),
	}
	rowPos := make(map[int]int, len(rows))
	for i, t := range rows {
		rowPos[t] = i
		w.Cells[i] = make([]Cell, len(columns))
	}
	for k, v := range seen {
		w.Cells[rowPos[k.time]][colPos[k.cat]] = Number(v)
	}
	return w, nil
}

// Melt is the inverse of Pivot: every valid cell becomes a record, row by
// row. Cells holding NaN are kept since they were present before pivoting.
func Melt(w *WideFrame, index, category, value string) (*LongFrame, error) {
	if err := checkIndexValue(index, value); err != nil {
		return nil, err
	}
	if _, err := categoryOf(category); err != nil {
		return nil, err
	}

	f := &LongFrame{Name: w.Name, HasAgent: category == ColAgent}
	for i, t := range w.Index {
		for j, c := range w.Cells[i] {
			if !c.Valid {
				continue
			}
			r := Record{Time: t, Value: c.Value}
			if category == ColAgent {
				r.Agent = w.Columns[j]
			} else {
				r.Item = w.Columns[j]
			}
			f.Records = append(f.Records, r)
		}
	}
	return f, nil
}
