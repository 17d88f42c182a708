package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"invdash/internal/frame"
	"invdash/internal/selection"
)

func TestRenderSVGFromFrame(t *testing.T) {
	w := &frame.WideFrame{
		Name:     "DS 1 state",
		IndexCol: "Time",
		Category: "item",
		Index:    []int{41, 42, 43},
		Columns:  []string{"Backlog", "Order"},
		Cells: [][]frame.Cell{
			{frame.Number(10), frame.Number(3)},
			{frame.Number(12), {}},
			{frame.Number(9), frame.Number(5)},
		},
	}

	var buf bytes.Buffer
	err := RenderSVG(&buf, FromFrame("DS1", w, selection.DisruptionShort.Intervals()))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "Backlog")
	assert.Contains(t, buf.String(), "Disruption")
}

func TestFromOutcomesSkipsFailures(t *testing.T) {
	key := selection.SelectionKey{Agent: selection.AgentDRL, Sensitivity: selection.Sensitivity04}
	ok := selection.Outcome{
		Key:     key,
		Metric:  selection.MetricReward,
		Label:   "DS reward function",
		Frame:   &frame.WideFrame{Index: []int{41}},
		Average: []frame.Cell{frame.Number(-2)},
	}
	skipped := selection.Outcome{Key: key, Skip: &selection.SkipNotice{Reason: selection.SkipMissingFile}}

	spec := FromOutcomes("", []selection.Outcome{skipped, ok}, nil)
	assert.Equal(t, "DS reward function", spec.Title)
	require.Len(t, spec.Lines, 1)
	assert.Equal(t, "DRL (s0.4)", spec.Lines[0].Name)

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, spec), "a single point is padded")
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderSVGNoData(t *testing.T) {
	spec := Spec{Lines: []Line{{Name: "empty", X: []int{41}, Y: []frame.Cell{{}}}}}
	assert.ErrorIs(t, RenderSVG(&bytes.Buffer{}, spec), ErrNoData)
}

func TestLineSeriesLeavesGapsOpen(t *testing.T) {
	line := Line{
		Name: "Order",
		X:    []int{41, 42, 43, 44, 45},
		Y:    []frame.Cell{frame.Number(3), {}, frame.Number(5), frame.Number(6), {}},
	}
	series, lo, hi := lineSeries([]Line{line})
	require.Len(t, series, 2)
	assert.Equal(t, 3.0, lo)
	assert.Equal(t, 6.0, hi)

	first := series[0].(chart.ContinuousSeries)
	assert.Equal(t, "Order", first.Name)
	assert.Equal(t, []float64{41}, first.XValues)
	assert.Positive(t, first.Style.DotWidth, "a lone point is drawn as a dot")

	second := series[1].(chart.ContinuousSeries)
	assert.Empty(t, second.Name)
	assert.Equal(t, []float64{43, 44}, second.XValues)
	assert.Equal(t, []float64{5, 6}, second.YValues)
	assert.Equal(t, first.Style.StrokeColor, second.Style.StrokeColor)
}
