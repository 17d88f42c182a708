// Package chart renders wide frames as SVG line charts with the disruption
// periods shaded.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"invdash/internal/frame"
	"invdash/internal/selection"
)

// ErrNoData is returned when no line has a single plottable point.
var ErrNoData = errors.New("chart: nothing to plot")

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 480
)

var bandColor = drawing.ColorFromHex("E45756").WithAlpha(48)

// Line is one plotted series. Invalid cells are gaps and are not drawn.
type Line struct {
	Name string
	X    []int
	Y    []frame.Cell
}

// Spec describes one chart.
type Spec struct {
	Title  string
	XName  string
	YName  string
	Lines  []Line
	Bands  []selection.Interval
	Width  int
	Height int
}

// FromOutcomes builds a chart of the row average of each successful outcome,
// one line per agent and sensitivity, with the given disruption bands.
func FromOutcomes(title string, outcomes []selection.Outcome, bands []selection.Interval) Spec {
	s := Spec{Title: title, XName: "Time", YName: "Value", Bands: bands}
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		if s.Title == "" {
			s.Title = o.Label
		}
		s.Lines = append(s.Lines, Line{
			Name: fmt.Sprintf("%s (s%s)", o.Key.Agent, o.Key.Sensitivity),
			X:    o.Frame.Index,
			Y:    o.Average,
		})
	}
	return s
}

// FromFrame builds a chart with one line per column of w.
func FromFrame(title string, w *frame.WideFrame, bands []selection.Interval) Spec {
	s := Spec{Title: title, XName: w.IndexCol, YName: "Value", Bands: bands}
	for _, col := range w.Columns {
		s.Lines = append(s.Lines, Line{Name: col, X: w.Index, Y: w.Column(col)})
	}
	return s
}

// RenderSVG writes the chart as an SVG document.
func RenderSVG(out io.Writer, s Spec) error {
	series, lo, hi := lineSeries(s.Lines)
	if len(series) == 0 {
		return ErrNoData
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	bands := make([]chart.Series, 0, len(s.Bands))
	for i, b := range s.Bands {
		name := ""
		if i == 0 {
			name = "Disruption"
		}
		// A filled series covers the area beneath it down to the axis floor.
		bands = append(bands, chart.ContinuousSeries{
			Name:    name,
			XValues: []float64{float64(b.Start), float64(b.End)},
			YValues: []float64{hi, hi},
			Style: chart.Style{
				StrokeWidth: 0.5,
				StrokeColor: bandColor,
				FillColor:   bandColor,
			},
		})
	}

	width, height := s.Width, s.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	ch := chart.Chart{
		Title:      s.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: s.XName},
		YAxis:      chart.YAxis{Name: s.YName, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     append(bands, series...),
	}
	// Unnamed continuation segments and bands stay out of the legend.
	legend := ch
	legend.Series = nil
	for _, series := range ch.Series {
		if series.GetName() != "" {
			legend.Series = append(legend.Series, series)
		}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&legend)}

	if err := ch.Render(chart.SVG, out); err != nil {
		return fmt.Errorf("chart: render %q: %w", s.Title, err)
	}
	return nil
}

// lineSeries converts lines into go-chart series and returns the y range.
// A line is split at empty cells so gaps stay open; only its first segment
// carries the name. Lines without valid points are dropped.
func lineSeries(lines []Line) ([]chart.Series, float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	var out []chart.Series
	for i, l := range lines {
		segs := segments(l)
		color := chart.GetDefaultColor(i)
		for k, seg := range segs {
			for _, y := range seg.ys {
				lo = math.Min(lo, y)
				hi = math.Max(hi, y)
			}
			style := chart.Style{StrokeColor: color, StrokeWidth: 2}
			if len(seg.xs) == 1 {
				if len(segs) == 1 {
					// go-chart needs two x values to compute a range.
					seg.xs = append(seg.xs, seg.xs[0]+1)
					seg.ys = append(seg.ys, seg.ys[0])
				} else {
					style.DotColor = color
					style.DotWidth = 3
				}
			}
			name := ""
			if k == 0 {
				name = l.Name
			}
			out = append(out, chart.ContinuousSeries{
				Name:    name,
				XValues: seg.xs,
				YValues: seg.ys,
				Style:   style,
			})
		}
	}
	return out, lo, hi
}

type segment struct {
	xs, ys []float64
}

// segments returns the runs of consecutive valid points of l.
func segments(l Line) []segment {
	var out []segment
	var cur segment
	for j, c := range l.Y {
		if j >= len(l.X) {
			break
		}
		if c.Empty() {
			if len(cur.xs) > 0 {
				out = append(out, cur)
				cur = segment{}
			}
			continue
		}
		cur.xs = append(cur.xs, float64(l.X[j]))
		cur.ys = append(cur.ys, c.Value)
	}
	if len(cur.xs) > 0 {
		out = append(out, cur)
	}
	return out
}
