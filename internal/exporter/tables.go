package exporter

import (
	"invdash/internal/selection"
)

// SummaryHeaders are the columns of a summary table.
var SummaryHeaders = []string{"Agent", "Scenario", "Disruption", "Entity", "Item", "Statistic", "Value"}

// SummaryTable flattens summary rows. Empty values become empty fields.
func SummaryTable(rows []selection.SummaryRow) ([]string, [][]string) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			string(r.Agent),
			string(r.Scenario),
			string(r.Disruption),
			r.Entity,
			r.Item,
			r.Statistic,
			formatCell(r.Value),
		})
	}
	return SummaryHeaders, records
}

// FrameHeaders are the columns of a long-form chart export.
var FrameHeaders = []string{"Agent", "OrderType", "Scenario", "Disruption", "Sheet", "Time", "Series", "Value"}

// OutcomeTable writes every cell of every successful outcome in long form,
// followed by the per-row Average series. Skipped outcomes are left out.
func OutcomeTable(outcomes []selection.Outcome) ([]string, [][]string) {
	var records [][]string
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		prefix := []string{
			string(o.Key.Agent),
			string(o.Key.OrderType),
			string(o.Key.Sensitivity),
			string(o.Key.Disruption),
			string(o.Metric),
		}
		w := o.Frame
		for i, t := range w.Index {
			for j, col := range w.Columns {
				records = append(records, row(prefix, formatInt(t), col, formatCell(w.Cells[i][j])))
			}
			if i < len(o.Average) {
				records = append(records, row(prefix, formatInt(t), "Average", formatCell(o.Average[i])))
			}
		}
	}
	return FrameHeaders, records
}

// SkipHeaders are the columns of a skip notice table.
var SkipHeaders = []string{"Agent", "OrderType", "Scenario", "Disruption", "Sheet", "Reason", "Message"}

// SkipTable lists the skip notices.
func SkipTable(skipped []selection.SkipNotice) ([]string, [][]string) {
	records := make([][]string, 0, len(skipped))
	for _, s := range skipped {
		records = append(records, []string{
			string(s.Key.Agent),
			string(s.Key.OrderType),
			string(s.Key.Sensitivity),
			string(s.Key.Disruption),
			string(s.Metric),
			string(s.Reason),
			s.Message,
		})
	}
	return SkipHeaders, records
}

func row(prefix []string, fields ...string) []string {
	out := make([]string, 0, len(prefix)+len(fields))
	out = append(out, prefix...)
	return append(out, fields...)
}
