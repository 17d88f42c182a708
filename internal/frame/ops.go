package frame

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// FilterFromTime keeps the records with Time strictly greater than cutoff,
// in their original order.
func FilterFromTime(f *LongFrame, cutoff int) *LongFrame {
	out := make([]Record, 0, len(f.Records))
	for _, r := range f.Records {
		if r.Time > cutoff {
			out = append(out, r)
		}
	}
	return f.with(out)
}

// DivisionPolicy decides what a ratio with a zero denominator becomes.
type DivisionPolicy string

const (
	// DivideNaN yields NaN for any zero denominator.
	DivideNaN DivisionPolicy = "nan"
	// DivideIEEE follows IEEE 754: ±Inf for a non-zero numerator, NaN for 0/0.
	DivideIEEE DivisionPolicy = "ieee"
	// DivideSkip drops the ratio row.
	DivideSkip DivisionPolicy = "skip"
)

// ParseDivisionPolicy validates a policy name.
func ParseDivisionPolicy(s string) (DivisionPolicy, error) {
	switch p := DivisionPolicy(s); p {
	case DivideNaN, DivideIEEE, DivideSkip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown division policy %q", s)
	}
}

// divide applies the policy. ok is false when the row must be dropped.
func (p DivisionPolicy) divide(num, den float64) (v float64, ok bool) {
	if den != 0 {
		return num / den, true
	}
	switch p {
	case DivideSkip:
		return 0, false
	case DivideIEEE:
		if num == 0 || math.IsNaN(num) {
			return math.NaN(), true
		}
		return math.Inf(sign(num)), true
	default:
		return math.NaN(), true
	}
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

type seriesKey struct {
	agent string
	time  int
}

// DeriveRatio appends numerator/denominator rows labelled label for every
// (Agent, Time) where both items are present. The original records are kept
// and the derived rows follow them in numerator order.
func DeriveRatio(f *LongFrame, numerator, denominator, label string, policy DivisionPolicy) *LongFrame {
	dens := make(map[seriesKey]float64)
	for _, r := range f.Records {
		if r.Item != denominator {
			continue
		}
		k := seriesKey{agent: r.Agent, time: r.Time}
		if _, dup := dens[k]; !dup {
			dens[k] = r.Value
		}
	}

	out := make([]Record, len(f.Records), len(f.Records)*2)
	copy(out, f.Records)
	for _, r := range f.Records {
		if r.Item != numerator {
			continue
		}
		den, ok := dens[seriesKey{agent: r.Agent, time: r.Time}]
		if !ok {
			continue
		}
		v, keep := policy.divide(r.Value, den)
		if !keep {
			continue
		}
		out = append(out, Record{Time: r.Time, Item: label, Value: v, Agent: r.Agent})
	}
	return f.with(out)
}

// Rounding selects how halves are rounded.
type Rounding string

const (
	// RoundHalfEven rounds halves to the nearest even integer.
	RoundHalfEven Rounding = "half_even"
	// RoundHalfAway rounds halves away from zero.
	RoundHalfAway Rounding = "half_away"
)

// ParseRounding validates a rounding mode name.
func ParseRounding(s string) (Rounding, error) {
	switch r := Rounding(s); r {
	case RoundHalfEven, RoundHalfAway:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Round rounds x to an integer value.
func (m Rounding) Round(x float64) float64 {
	if m == RoundHalfAway {
		return math.Round(x)
	}
	return math.RoundToEven(x)
}

// RollingMean is a trailing moving average that needs a single observation
// per window: the first window-1 outputs average whatever is available.
// NaN inputs are ignored; a window holding only NaN yields NaN.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		var n int
		for _, v := range values[lo : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// finite drops NaN values.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// sampleStd is the n-1 standard deviation ignoring NaN; NaN below two values.
func sampleStd(values []float64) float64 {
	clean := finite(values)
	if len(clean) < 2 {
		return math.NaN()
	}
	sd, err := stats.StandardDeviationSample(clean)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// SmoothOrders damps spikes in the series labelled item, separately per
// Agent. With σ the sample standard deviation of the series, each value
// x ≥ σ becomes round(x − σ); the result is then passed through a trailing
// RollingMean of the given window and rounded again. Other series are left
// untouched.
func SmoothOrders(f *LongFrame, item string, window int, mode Rounding) *LongFrame {
	out := make([]Record, len(f.Records))
	copy(out, f.Records)

	positions := make(map[string][]int)
	var agents []string
	for i, r := range out {
		if r.Item != item {
			continue
		}
		if _, ok := positions[r.Agent]; !ok {
			agents = append(agents, r.Agent)
		}
		positions[r.Agent] = append(positions[r.Agent], i)
	}

	for _, agent := range agents {
		idx := positions[agent]
		series := make([]float64, len(idx))
		for j, i := range idx {
			series[j] = out[i].Value
		}

		sigma := sampleStd(series)
		for j, x := range series {
			if x >= sigma {
				series[j] = mode.Round(x - sigma)
			}
		}

		smoothed := RollingMean(series, window)
		for j, i := range idx {
			out[i].Value = mode.Round(smoothed[j])
		}
	}
	return f.with(out)
}
