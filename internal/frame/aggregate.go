package frame

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// Stat names a per-group statistic.
type Stat string

const (
	StatMean Stat = "mean"
	// StatStd is the sample (n-1) standard deviation.
	StatStd Stat = "std"
	// StatMAD is the mean absolute deviation around the group mean.
	StatMAD Stat = "mad"
	// StatCV is the coefficient of variation, std/mean.
	StatCV Stat = "cv"
)

// ParseStat validates a statistic name.
func ParseStat(s string) (Stat, error) {
	switch st := Stat(s); st {
	case StatMean, StatStd, StatMAD, StatCV:
		return st, nil
	default:
		return "", fmt.Errorf("unknown statistic %q", s)
	}
}

// GroupKey identifies a group. Fields not named in the grouping columns
// keep their zero value.
type GroupKey struct {
	Time  int    `json:"time,omitempty"`
	Item  string `json:"item,omitempty"`
	Agent string `json:"agent,omitempty"`
}

func keyFunc(groupCols []string) (func(Record) GroupKey, error) {
	var byTime, byItem, byAgent bool
	for _, c := range groupCols {
		switch c {
		case ColTime:
			byTime = true
		case ColItem:
			byItem = true
		case ColAgent:
			byAgent = true
		default:
			return nil, fmt.Errorf("%w: cannot group by %q", ErrUnknownColumn, c)
		}
	}
	return func(r Record) GroupKey {
		var k GroupKey
		if byTime {
			k.Time = r.Time
		}
		if byItem {
			k.Item = r.Item
		}
		if byAgent {
			k.Agent = r.Agent
		}
		return k
	}, nil
}

// Aggregate computes stat over the values of each group. Callers filter the
// frame first; the statistic only sees what it is given. NaN values are
// ignored, and a group without any finite values maps to NaN.
func Aggregate(f *LongFrame, groupCols []string, stat Stat) (map[GroupKey]float64, error) {
	if _, err := ParseStat(string(stat)); err != nil {
		return nil, err
	}
	keyOf, err := keyFunc(groupCols)
	if err != nil {
		return nil, err
	}

	groups := make(map[GroupKey][]float64)
	for _, r := range f.Records {
		k := keyOf(r)
		groups[k] = append(groups[k], r.Value)
	}

	out := make(map[GroupKey]float64, len(groups))
	for k, values := range groups {
		out[k] = Compute(values, stat)
	}
	return out, nil
}

// Compute applies stat to a plain series.
func Compute(values []float64, stat Stat) float64 {
	clean := finite(values)
	if len(clean) == 0 {
		return math.NaN()
	}
	switch stat {
	case StatMean:
		m, _ := stats.Mean(clean)
		return m
	case StatStd:
		return sampleStd(clean)
	case StatMAD:
		return meanAbsDeviation(clean)
	case StatCV:
		m, _ := stats.Mean(clean)
		if m == 0 {
			return math.NaN()
		}
		return sampleStd(clean) / m
	default:
		return math.NaN()
	}
}

func meanAbsDeviation(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return math.NaN()
	}
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - m)
	}
	mad, err := stats.Mean(dev)
	if err != nil {
		return math.NaN()
	}
	return mad
}

// Box is a five-number summary for box plots.
type Box struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// BoxStats summarises the finite values of a series. Quartiles are the
// medians of the lower and upper halves.
func BoxStats(values []float64) (Box, error) {
	clean := finite(values)
	switch len(clean) {
	case 0:
		return Box{}, stats.ErrEmptyInput
	case 1:
		v := clean[0]
		return Box{Min: v, Q1: v, Median: v, Q3: v, Max: v, Count: 1}, nil
	}

	q, err := stats.Quartile(clean)
	if err != nil {
		return Box{}, err
	}
	lo, err := stats.Min(clean)
	if err != nil {
		return Box{}, err
	}
	hi, err := stats.Max(clean)
	if err != nil {
		return Box{}, err
	}
	return Box{Min: lo, Q1: q.Q1, Median: q.Q2, Q3: q.Q3, Max: hi, Count: len(clean)}, nil
}

// ValuesByItem splits a frame into per-item series in first-seen item order.
func ValuesByItem(f *LongFrame) ([]string, map[string][]float64) {
	series := make(map[string][]float64)
	items := f.Items()
	for _, r := range f.Records {
		series[r.Item] = append(series[r.Item], r.Value)
	}
	return items, series
}

// SortedKeys returns the keys of an Aggregate result in a stable order.
func SortedKeys(m map[GroupKey]float64) []GroupKey {
	keys := make([]GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Agent != b.Agent {
			return a.Agent < b.Agent
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Time < b.Time
	})
	return keys
}
