package selection

import (
	"invdash/internal/frame"
)

// SkipReason classifies why a selection produced no frame.
type SkipReason string

const (
	SkipMissingFile  SkipReason = "missing_file"
	SkipUnreadable   SkipReason = "unreadable_file"
	SkipMissingTable SkipReason = "missing_table"
	SkipMalformed    SkipReason = "malformed_table"
	SkipDuplicateKey SkipReason = "duplicate_key"
	SkipEmptyResult  SkipReason = "empty_result"
)

// SkipNotice tells the renderer which selection was left out and why.
type SkipNotice struct {
	Key     SelectionKey `json:"selection"`
	Metric  Metric       `json:"metric,omitempty"`
	Reason  SkipReason   `json:"reason"`
	Message string       `json:"message"`
}

// Outcome is the result for one (selection, metric): a chart-ready frame or
// a skip notice, never both.
type Outcome struct {
	Key     SelectionKey     `json:"selection"`
	Metric  Metric           `json:"metric"`
	Label   string           `json:"label"`
	Frame   *frame.WideFrame `json:"frame,omitempty"`
	Average []frame.Cell     `json:"average,omitempty"`
	Skip    *SkipNotice      `json:"skip,omitempty"`
}

// OK reports whether the outcome carries a frame.
func (o Outcome) OK() bool { return o.Skip == nil && o.Frame != nil }

// Report collects the outcomes of one render in display order.
type Report struct {
	Outcomes  []Outcome                 `json:"outcomes"`
	Skipped   []SkipNotice              `json:"skipped"`
	Guidance  []Guidance                `json:"guidance"`
	Intervals map[Disruption][]Interval `json:"disruption_intervals"`
}

func newReport(guidance []Guidance) *Report {
	return &Report{
		Outcomes:  []Outcome{},
		Skipped:   []SkipNotice{},
		Guidance:  append([]Guidance{}, guidance...),
		Intervals: make(map[Disruption][]Interval),
	}
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Skip != nil {
		r.Skipped = append(r.Skipped, *o.Skip)
	}
}

// Frames returns the successful outcomes in order.
func (r *Report) Frames() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// SummaryRow is one statistic for one series of one workbook.
type SummaryRow struct {
	Agent      Agent       `json:"agent"`
	Scenario   Sensitivity `json:"scenario"`
	Disruption Disruption  `json:"disruption"`
	Entity     string      `json:"entity"`
	Item       string      `json:"item,omitempty"`
	Statistic  string      `json:"statistic"`
	Value      frame.Cell  `json:"value"`
}

// SummaryReport is the statistics table for one render.
type SummaryReport struct {
	Rows     []SummaryRow `json:"rows"`
	Skipped  []SkipNotice `json:"skipped"`
	Guidance []Guidance   `json:"guidance"`
}

func newSummaryReport(guidance []Guidance) *SummaryReport {
	return &SummaryReport{
		Rows:     []SummaryRow{},
		Skipped:  []SkipNotice{},
		Guidance: append([]Guidance{}, guidance...),
	}
}
