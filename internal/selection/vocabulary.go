package selection

import (
	"errors"
	"fmt"

	"invdash/internal/frame"
)

// ErrUnknownValue is returned when a selection value is outside its
// controlled vocabulary.
var ErrUnknownValue = errors.New("unknown selection value")

// Agent is the distributor ordering policy under evaluation.
type Agent string

const (
	AgentDRL       Agent = "DRL"
	AgentDRLRNN    Agent = "DRL_RNN"
	AgentBasestock Agent = "basestock"
)

// Agents lists every agent in display order.
var Agents = []Agent{AgentDRL, AgentDRLRNN, AgentBasestock}

// OrderType is the order policy both distributors follow.
type OrderType string

const (
	OrderUpToLevelEq       OrderType = "UpToLevel_Eq"
	OrderUpToLevelHC1Trust OrderType = "UpToLevel_HC1Trust"
)

// OrderTypes lists every order type.
var OrderTypes = []OrderType{OrderUpToLevelEq, OrderUpToLevelHC1Trust}

// Sensitivity is the experiment's sensitivity factor, kept as the exact
// token used in file names.
type Sensitivity string

const (
	Sensitivity01 Sensitivity = "0.1"
	Sensitivity04 Sensitivity = "0.4"
	Sensitivity05 Sensitivity = "0.5"
)

// Sensitivities lists every sensitivity factor.
var Sensitivities = []Sensitivity{Sensitivity01, Sensitivity04, Sensitivity05}

// Disruption names a supply-interruption scenario. The name is embedded
// verbatim in file names, spaces and parentheses included.
type Disruption string

const (
	DisruptionNone     Disruption = "No disruption"
	DisruptionShort    Disruption = "short (67-72)"
	DisruptionModerate Disruption = "moderate (67-81)"
	DisruptionLong     Disruption = "long (67-86)"
	DisruptionLongest  Disruption = "longest (67-98)"
	DisruptionMultiple Disruption = "multiple (67-72, 110-116)"
)

// Disruptions lists every scenario from shortest to longest.
var Disruptions = []Disruption{
	DisruptionNone, DisruptionShort, DisruptionModerate,
	DisruptionLong, DisruptionLongest, DisruptionMultiple,
}

// Interval is an inclusive span of simulation periods.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

var disruptionIntervals = map[Disruption][]Interval{
	DisruptionNone:     nil,
	DisruptionShort:    {{67, 72}},
	DisruptionModerate: {{67, 81}},
	DisruptionLong:     {{67, 86}},
	DisruptionLongest:  {{67, 98}},
	DisruptionMultiple: {{67, 72}, {110, 116}},
}

// Intervals returns the periods during which supply is interrupted.
func (d Disruption) Intervals() []Interval {
	iv := disruptionIntervals[d]
	out := make([]Interval, len(iv))
	copy(out, iv)
	return out
}

// Metric is a sheet name of the simulation workbook.
type Metric string

const (
	MetricDS1State     Metric = "DS 1 state"
	MetricDS2State     Metric = "DS 2 state"
	MetricMN1State     Metric = "MN 1 state"
	MetricMN2State     Metric = "MN 2 state"
	MetricHC1State     Metric = "HC 1 state"
	MetricHC2State     Metric = "HC 2 state"
	MetricHC1Trust     Metric = "HC 1 trust"
	MetricHC2Trust     Metric = "HC 2 trust"
	MetricHC1Shipments Metric = "HC 1 shipments"
	MetricDS1Shipments Metric = "DS 1 shipments"
	MetricDS2Shipments Metric = "DS 2 shipments"
	MetricReward       Metric = "Reward"
)

// Metrics lists every sheet of a full workbook in display order.
var Metrics = []Metric{
	MetricDS1State, MetricDS2State, MetricMN1State, MetricMN2State,
	MetricHC1State, MetricHC2State, MetricHC1Trust, MetricHC2Trust,
	MetricHC1Shipments, MetricDS1Shipments, MetricDS2Shipments, MetricReward,
}

var metricLabels = map[Metric]string{
	MetricDS1State:     "Backlog, orders and lead time at DS1",
	MetricDS2State:     "Backlog, orders and lead time at DS2",
	MetricMN1State:     "Inventory and backlog at MN1",
	MetricMN2State:     "Inventory and backlog at MN2",
	MetricHC1State:     "Inventory and backlog at HC1",
	MetricHC2State:     "Inventory and backlog at HC2",
	MetricHC1Trust:     "Trustworthiness HC1 attributes to each DS",
	MetricHC2Trust:     "Trustworthiness HC2 attributes to each DS",
	MetricHC1Shipments: "Shipments received by HC1",
	MetricDS1Shipments: "Shipments sent by DS1",
	MetricDS2Shipments: "Shipments sent by DS2",
	MetricReward:       "DS reward function",
}

// Label is the chart title for the metric.
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// IsState reports whether the sheet holds node state series.
func (m Metric) IsState() bool {
	switch m {
	case MetricDS1State, MetricDS2State, MetricMN1State, MetricMN2State, MetricHC1State, MetricHC2State:
		return true
	}
	return false
}

// IsDistributorState reports whether the sheet is a distributor's state,
// whose order series is smoothed before charting.
func (m Metric) IsDistributorState() bool {
	return m == MetricDS1State || m == MetricDS2State
}

// IsTrust reports whether the sheet holds trust scores.
func (m Metric) IsTrust() bool {
	return m == MetricHC1Trust || m == MetricHC2Trust
}

// CategoryColumn is the long-form column that becomes the wide columns.
// Reward series are told apart by Agent, every other sheet by item.
func (m Metric) CategoryColumn() string {
	if m == MetricReward {
		return frame.ColAgent
	}
	return frame.ColItem
}

// Item labels used inside state sheets.
const (
	ItemBacklog       = "Backlog"
	ItemDemand        = "Demand"
	ItemOrder         = "Order"
	ItemLeadTime      = "Lead-time"
	ItemInventory     = "Inventory"
	ItemTrust         = "Trust"
	ItemShipment      = "Shipment"
	ItemOrderToDemand = "Order_to_Demand Ratio"
)

// TimingEntity names the wall-clock rows of the rewards table.
const TimingEntity = "Time taken"

// Schema is the dataset capability: full workbooks carry every sheet,
// reward-only workbooks carry only the Reward sheet.
type Schema string

const (
	SchemaFull       Schema = "full"
	SchemaRewardOnly Schema = "reward_only"
)

// ParseSchema validates a schema name.
func ParseSchema(s string) (Schema, error) {
	switch sc := Schema(s); sc {
	case SchemaFull, SchemaRewardOnly:
		return sc, nil
	}
	return "", fmt.Errorf("%w: schema %q", ErrUnknownValue, s)
}

// Metrics returns the sheets available under the schema.
func (s Schema) Metrics() []Metric {
	if s == SchemaRewardOnly {
		return []Metric{MetricReward}
	}
	out := make([]Metric, len(Metrics))
	copy(out, Metrics)
	return out
}

// Allows reports whether the schema provides the metric.
func (s Schema) Allows(m Metric) bool {
	if s == SchemaRewardOnly {
		return m == MetricReward
	}
	_, ok := metricLabels[m]
	return ok
}

func parse[T ~string](kind, s string, allowed []T) (T, error) {
	for _, a := range allowed {
		if string(a) == s {
			return a, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, kind, s)
}

// ParseAgent validates an agent name.
func ParseAgent(s string) (Agent, error) { return parse("agent", s, Agents) }

// ParseOrderType validates an order type.
func ParseOrderType(s string) (OrderType, error) { return parse("order type", s, OrderTypes) }

// ParseSensitivity validates a sensitivity token.
func ParseSensitivity(s string) (Sensitivity, error) {
	return parse("sensitivity", s, Sensitivities)
}

// ParseDisruption validates a disruption scenario name.
func ParseDisruption(s string) (Disruption, error) {
	return parse("disruption", s, Disruptions)
}

// ParseMetric validates a sheet name.
func ParseMetric(s string) (Metric, error) { return parse("metric", s, Metrics) }
