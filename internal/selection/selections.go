package selection

import (
	"fmt"
	"strings"
)

// View is the kind of output a request renders; each view needs a
// different minimum selection.
type View string

const (
	// ViewCharts renders one chart per selection and metric.
	ViewCharts View = "charts"
	// ViewDetail renders a single chart with the disruption overlaid.
	ViewDetail View = "detail"
	// ViewSummary renders statistics tables and does not need metrics.
	ViewSummary View = "summary"
)

// Selections is what the user picked for one render. It is built per
// request and never mutated by the pipeline.
type Selections struct {
	Agents        []Agent       `json:"agents"`
	OrderType     OrderType     `json:"order_type"`
	Sensitivities []Sensitivity `json:"sensitivities"`
	Disruptions   []Disruption  `json:"disruptions"`
	Metrics       []Metric      `json:"metrics"`
}

// Guidance codes.
const (
	GuidanceNoAgent           = "no_agent"
	GuidanceNoOrderType       = "no_order_type"
	GuidanceNoSensitivity     = "no_sensitivity"
	GuidanceNoDisruption      = "no_disruption"
	GuidanceNoMetric          = "no_metric"
	GuidanceSingleDisruption  = "single_disruption_required"
	GuidanceSingleMetric      = "single_metric_required"
	GuidanceMetricUnavailable = "metric_unavailable"
)

// Guidance is a user-facing hint about a selection that cannot be rendered
// as asked. It is not an error: the rest of the render proceeds.
type Guidance struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Blocking reports whether nothing can be rendered until the user acts.
func (g Guidance) Blocking() bool {
	return g.Code != GuidanceMetricUnavailable
}

// Check returns guidance for combinations the view cannot render.
func (s Selections) Check(schema Schema, view View) []Guidance {
	var out []Guidance
	add := func(code, format string, args ...interface{}) {
		out = append(out, Guidance{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(s.Agents) == 0 {
		add(GuidanceNoAgent, "Select at least one intelligent agent type.")
	}
	if s.OrderType == "" {
		add(GuidanceNoOrderType, "Select the distributors' order type.")
	}
	if len(s.Sensitivities) == 0 {
		add(GuidanceNoSensitivity, "Select at least one sensitivity factor.")
	}
	if len(s.Disruptions) == 0 {
		add(GuidanceNoDisruption, "Select a disruption duration.")
	}

	if view != ViewSummary {
		if len(s.Metrics) == 0 {
			add(GuidanceNoMetric, "Select at least one state, reward or trust sheet to plot.")
		}
		for _, m := range s.Metrics {
			if !schema.Allows(m) {
				add(GuidanceMetricUnavailable, "%q is not available in %s datasets and was left out.", m, schema)
			}
		}
	}

	if view == ViewDetail {
		if len(s.Disruptions) > 1 {
			add(GuidanceSingleDisruption, "Select exactly one disruption to show it on the chart (%d selected).", len(s.Disruptions))
		}
		if len(s.Metrics) > 1 {
			add(GuidanceSingleMetric, "Select exactly one sheet for the detail chart (%d selected).", len(s.Metrics))
		}
	}
	return out
}

// Blocked reports whether any guidance prevents rendering.
func Blocked(guidance []Guidance) bool {
	for _, g := range guidance {
		if g.Blocking() {
			return true
		}
	}
	return false
}

// Keys expands the selection into workbook keys: agent-major, then
// sensitivity, then disruption. Repeated values yield one key.
func (s Selections) Keys() []SelectionKey {
	agents, sens, disruptions := distinct(s.Agents), distinct(s.Sensitivities), distinct(s.Disruptions)
	keys := make([]SelectionKey, 0, len(agents)*len(sens)*len(disruptions))
	for _, a := range agents {
		for _, sf := range sens {
			for _, d := range disruptions {
				keys = append(keys, SelectionKey{Agent: a, OrderType: s.OrderType, Disruption: d, Sensitivity: sf})
			}
		}
	}
	return keys
}

// distinct keeps the first occurrence of each value.
func distinct[T comparable](values []T) []T {
	seen := make(map[T]bool, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// MetricsFor returns the selected metrics the schema provides, in
// selection order with duplicates removed.
func (s Selections) MetricsFor(schema Schema) []Metric {
	seen := make(map[Metric]bool, len(s.Metrics))
	var out []Metric
	for _, m := range s.Metrics {
		if seen[m] || !schema.Allows(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Validate rejects values outside the controlled vocabularies.
func (s Selections) Validate() error {
	var bad []string
	check := func(_ interface{}, err error) {
		if err != nil {
			bad = append(bad, strings.TrimPrefix(err.Error(), ErrUnknownValue.Error()+": "))
		}
	}
	for _, a := range s.Agents {
		check(ParseAgent(string(a)))
	}
	if s.OrderType != "" {
		check(ParseOrderType(string(s.OrderType)))
	}
	for _, sf := range s.Sensitivities {
		check(ParseSensitivity(string(sf)))
	}
	for _, d := range s.Disruptions {
		check(ParseDisruption(string(d)))
	}
	for _, m := range s.Metrics {
		check(ParseMetric(string(m)))
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownValue, strings.Join(bad, "; "))
	}
	return nil
}
