package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"invdash/internal/chart"
	apierrors "invdash/internal/errors"
	"invdash/internal/exporter"
	"invdash/internal/selection"
)

// Pipeline is the part of selection.Pipeline the dashboard uses.
type Pipeline interface {
	CombineForScenarios(ctx context.Context, sel selection.Selections) (*selection.Report, error)
	Detail(ctx context.Context, sel selection.Selections) (*selection.Report, error)
	Summarize(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error)
	RewardsAndTime(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error)
	Config() selection.Config
}

// Export kinds for CSV downloads.
const (
	ExportCharts  = "charts"
	ExportSummary = "summary"
	ExportRewards = "rewards"
	ExportSkipped = "skipped"
)

// ExportKinds lists the CSV export kinds.
var ExportKinds = []string{ExportCharts, ExportSummary, ExportRewards, ExportSkipped}

// DashboardService answers dashboard requests from the selection pipeline.
type DashboardService struct {
	pipeline     Pipeline
	defaultOrder selection.OrderType
	xlsx         *exporter.XLSXWriter
	logger       *slog.Logger
}

// NewDashboardService creates the service. defaultOrder is reported by the
// vocabulary endpoint as the preselected order type.
func NewDashboardService(pipeline Pipeline, defaultOrder selection.OrderType, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		pipeline:     pipeline,
		defaultOrder: defaultOrder,
		xlsx:         exporter.NewXLSXWriter(),
		logger:       logger.With(slog.String("service", "dashboard")),
	}
}

// DisruptionInfo is a disruption scenario and the periods it covers.
type DisruptionInfo struct {
	Name      selection.Disruption `json:"name"`
	Intervals []selection.Interval `json:"intervals"`
}

// MetricInfo is a workbook sheet with its chart title.
type MetricInfo struct {
	Name      selection.Metric `json:"name"`
	Label     string           `json:"label"`
	Available bool             `json:"available"`
}

// Vocabulary is everything a client needs to build its selection controls.
type Vocabulary struct {
	Agents           []selection.Agent       `json:"agents"`
	OrderTypes       []selection.OrderType   `json:"order_types"`
	DefaultOrderType selection.OrderType     `json:"default_order_type"`
	Sensitivities    []selection.Sensitivity `json:"sensitivities"`
	Disruptions      []DisruptionInfo        `json:"disruptions"`
	Metrics          []MetricInfo            `json:"metrics"`
	Schema           selection.Schema        `json:"schema"`
	TimeCutoff       int                     `json:"time_cutoff"`
}

// Vocabulary returns the controlled vocabularies. Metrics the dataset
// schema does not provide are listed as unavailable.
func (s *DashboardService) Vocabulary() Vocabulary {
	cfg := s.pipeline.Config()
	v := Vocabulary{
		Agents:           selection.Agents,
		OrderTypes:       selection.OrderTypes,
		DefaultOrderType: s.defaultOrder,
		Sensitivities:    selection.Sensitivities,
		Schema:           cfg.Schema,
		TimeCutoff:       cfg.TimeCutoff,
	}
	for _, d := range selection.Disruptions {
		v.Disruptions = append(v.Disruptions, DisruptionInfo{Name: d, Intervals: d.Intervals()})
	}
	for _, m := range selection.Metrics {
		v.Metrics = append(v.Metrics, MetricInfo{Name: m, Label: m.Label(), Available: cfg.Schema.Allows(m)})
	}
	return v
}

// Charts runs the chart view. Guidance and skips come back inside the
// report, not as errors.
func (s *DashboardService) Charts(ctx context.Context, sel selection.Selections) (*selection.Report, error) {
	if err := validate(sel); err != nil {
		return nil, err
	}
	report, err := s.pipeline.CombineForScenarios(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("combine selections: %w", err)
	}
	s.logReport(ctx, "charts", len(report.Outcomes), len(report.Skipped), report.Guidance)
	return report, nil
}

// Detail runs the single-chart view.
func (s *DashboardService) Detail(ctx context.Context, sel selection.Selections) (*selection.Report, error) {
	if err := validate(sel); err != nil {
		return nil, err
	}
	report, err := s.pipeline.Detail(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("detail view: %w", err)
	}
	s.logReport(ctx, "detail", len(report.Outcomes), len(report.Skipped), report.Guidance)
	return report, nil
}

// Summary runs the statistics view.
func (s *DashboardService) Summary(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error) {
	if err := validate(sel); err != nil {
		return nil, err
	}
	report, err := s.pipeline.Summarize(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	s.logReport(ctx, "summary", len(report.Rows), len(report.Skipped), report.Guidance)
	return report, nil
}

// Rewards runs the reward and time-taken table.
func (s *DashboardService) Rewards(ctx context.Context, sel selection.Selections) (*selection.SummaryReport, error) {
	if err := validate(sel); err != nil {
		return nil, err
	}
	report, err := s.pipeline.RewardsAndTime(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("rewards and time: %w", err)
	}
	s.logReport(ctx, "rewards", len(report.Rows), len(report.Skipped), report.Guidance)
	return report, nil
}

// SVGOptions sizes a rendered chart. Zero values take the chart defaults.
type SVGOptions struct {
	Width  int
	Height int
}

// ChartSVG renders the detail view as an SVG document. A lone successful
// outcome is drawn series by series; several are drawn as their row
// averages, one line per agent and sensitivity. The selected disruption is
// shaded either way.
func (s *DashboardService) ChartSVG(ctx context.Context, sel selection.Selections, opts SVGOptions, out io.Writer) error {
	report, err := s.Detail(ctx, sel)
	if err != nil {
		return err
	}
	if selection.Blocked(report.Guidance) {
		return blocked(report.Guidance)
	}

	var bands []selection.Interval
	if len(sel.Disruptions) == 1 {
		bands = report.Intervals[sel.Disruptions[0]]
	}

	frames := report.Frames()
	var spec chart.Spec
	switch len(frames) {
	case 0:
		return apierrors.NewNoDataError("every selected workbook was skipped").
			WithContext("skipped", report.Skipped)
	case 1:
		o := frames[0]
		spec = chart.FromFrame(fmt.Sprintf("%s: %s (s%s)", o.Label, o.Key.Agent, o.Key.Sensitivity), o.Frame, bands)
	default:
		spec = chart.FromOutcomes(frames[0].Label, frames, bands)
	}
	spec.Width, spec.Height = opts.Width, opts.Height

	if err := chart.RenderSVG(out, spec); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			return apierrors.NewNoDataError("the selected series hold no values")
		}
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// ExportCSV writes one table as CSV with a UTF-8 BOM so spreadsheet tools
// detect the encoding.
func (s *DashboardService) ExportCSV(ctx context.Context, sel selection.Selections, kind string, out io.Writer) error {
	headers, records, err := s.Table(ctx, sel, kind)
	if err != nil {
		return err
	}
	return exporter.Write(out, exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// Table renders one export kind as a header row and records.
func (s *DashboardService) Table(ctx context.Context, sel selection.Selections, kind string) ([]string, [][]string, error) {
	switch kind {
	case ExportCharts, ExportSkipped:
		report, err := s.Charts(ctx, sel)
		if err != nil {
			return nil, nil, err
		}
		if selection.Blocked(report.Guidance) {
			return nil, nil, blocked(report.Guidance)
		}
		if kind == ExportSkipped {
			h, r := exporter.SkipTable(report.Skipped)
			return h, r, nil
		}
		h, r := exporter.OutcomeTable(report.Outcomes)
		return h, r, nil
	case ExportSummary, ExportRewards:
		run := s.Summary
		if kind == ExportRewards {
			run = s.Rewards
		}
		report, err := run(ctx, sel)
		if err != nil {
			return nil, nil, err
		}
		if selection.Blocked(report.Guidance) {
			return nil, nil, blocked(report.Guidance)
		}
		h, r := exporter.SummaryTable(report.Rows)
		return h, r, nil
	default:
		return nil, nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "unsupported export", fmt.Errorf("%w: %q", ErrUnknownExport, kind))
	}
}

// ExportXLSX writes a workbook with the summary, the rewards table and,
// when metrics are selected, the chart data. Every skip notice lands on a
// final sheet.
func (s *DashboardService) ExportXLSX(ctx context.Context, sel selection.Selections, out io.Writer) error {
	summary, err := s.Summary(ctx, sel)
	if err != nil {
		return err
	}
	if selection.Blocked(summary.Guidance) {
		return blocked(summary.Guidance)
	}
	rewards, err := s.Rewards(ctx, sel)
	if err != nil {
		return err
	}

	var tables []exporter.Table
	add := func(name string, headers []string, records [][]string) {
		tables = append(tables, exporter.Table{Name: name, Headers: headers, Records: records})
	}
	h, r := exporter.SummaryTable(summary.Rows)
	add("Summary", h, r)
	h, r = exporter.SummaryTable(rewards.Rows)
	add("Rewards and time", h, r)

	skipped := append(append([]selection.SkipNotice(nil), summary.Skipped...), rewards.Skipped...)
	if len(sel.Metrics) > 0 {
		charts, err := s.Charts(ctx, sel)
		if err != nil {
			return err
		}
		h, r = exporter.OutcomeTable(charts.Outcomes)
		add("Charts", h, r)
		skipped = append(skipped, charts.Skipped...)
	}
	h, r = exporter.SkipTable(skipped)
	add("Skipped", h, r)

	if err := s.xlsx.Write(out, tables...); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportFileName is the download name for an export, stamped in UTC.
func ExportFileName(kind, ext string) string {
	return fmt.Sprintf("invdash-%s-%s.%s", kind, time.Now().UTC().Format("20060102-150405"), ext)
}

func (s *DashboardService) logReport(ctx context.Context, view string, results, skipped int, guidance []selection.Guidance) {
	level := slog.LevelDebug
	if skipped > 0 {
		level = slog.LevelInfo
	}
	s.logger.Log(ctx, level, "view rendered",
		slog.String("view", view),
		slog.Int("results", results),
		slog.Int("skipped", skipped),
		slog.Int("guidance", len(guidance)))
}

func validate(sel selection.Selections) error {
	if err := sel.Validate(); err != nil {
		return apierrors.NewSelectionError(err)
	}
	return nil
}

func blocked(guidance []selection.Guidance) error {
	return apierrors.NewAppError(apierrors.ErrTypeValidation, "selection needs changes before it can be rendered", ErrBlocked).
		WithContext("guidance", guidance)
}
