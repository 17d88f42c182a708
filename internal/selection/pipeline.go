package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"invdash/internal/frame"
	"invdash/internal/workbook"
)

// Pipeline turns selections into chart-ready frames and summary rows.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	loader workbook.Loader
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	tel    *telemetry
}

// NewPipeline validates cfg and builds a pipeline over loader. A nil meter
// uses the global meter provider.
func NewPipeline(loader workbook.Loader, cfg Config, logger *slog.Logger, meter metric.Meter) (*Pipeline, error) {
	if loader == nil {
		return nil, errors.New("selection: loader is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	tel, err := newTelemetry(meter)
	if err != nil {
		return nil, fmt.Errorf("selection: create metrics: %w", err)
	}
	return &Pipeline{
		loader: loader,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "selection")),
		tracer: otel.Tracer(instrumentationName),
		tel:    tel,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// CombineForScenarios produces one outcome per (selection key, metric) in
// agent, sensitivity, disruption, metric order. Failures of individual
// selections become skip notices; the only error returned is the context's.
func (p *Pipeline) CombineForScenarios(ctx context.Context, sel Selections) (*Report, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "selection.CombineForScenarios")
	defer span.End()
	defer p.tel.run(ctx, "charts", start)

	report := newReport(sel.Check(p.cfg.Schema, ViewCharts))
	if Blocked(report.Guidance) {
		return report, nil
	}
	metrics := sel.MetricsFor(p.cfg.Schema)
	for _, d := range sel.Disruptions {
		report.Intervals[d] = d.Intervals()
	}

	for _, key := range sel.Keys() {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		tables, notice, err := p.load(ctx, key, metricNames(metrics))
		if err != nil {
			return nil, err
		}
		for _, m := range metrics {
			o := Outcome{Key: key, Metric: m, Label: m.Label()}
			if notice != nil {
				n := *notice
				n.Metric = m
				o.Skip = &n
			} else {
				p.chart(ctx, &o, tables[string(m)])
			}
			p.tel.outcome(ctx, o)
			report.add(o)
		}
	}

	span.SetAttributes(
		attribute.Int("outcomes", len(report.Outcomes)),
		attribute.Int("skipped", len(report.Skipped)),
	)
	p.logger.DebugContext(ctx, "selections combined",
		slog.Int("outcomes", len(report.Outcomes)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", time.Since(start)))
	return report, nil
}

// Detail renders the single-chart view: one metric, one disruption, every
// selected agent and sensitivity overlaid.
func (p *Pipeline) Detail(ctx context.Context, sel Selections) (*Report, error) {
	guidance := sel.Check(p.cfg.Schema, ViewDetail)
	if Blocked(guidance) {
		return newReport(guidance), nil
	}
	report, err := p.CombineForScenarios(ctx, sel)
	if err != nil {
		return nil, err
	}
	report.Guidance = guidance
	return report, nil
}

// load reads one workbook. A file-level failure becomes a notice shared by
// every metric of the key.
func (p *Pipeline) load(ctx context.Context, key SelectionKey, names []string) (frame.NamedTableSet, *SkipNotice, error) {
	path := PathFor(p.cfg.DataDir, key)
	tables, err := p.loader.Load(ctx, path, names)
	if err == nil {
		return tables, nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, ctxErr
	}

	reason := SkipUnreadable
	if errors.Is(err, workbook.ErrFileNotFound) {
		reason = SkipMissingFile
	}
	p.logger.WarnContext(ctx, "workbook unavailable",
		slog.String("selection", key.String()),
		slog.String("path", path),
		slog.String("reason", string(reason)),
		slog.String("error", err.Error()))
	return nil, &SkipNotice{
		Key:     key,
		Reason:  reason,
		Message: fmt.Sprintf("No data for %s: %v", key, err),
	}, nil
}

func (p *Pipeline) chart(ctx context.Context, o *Outcome, table *frame.Table) {
	f, skip := p.prepare(ctx, o.Key, o.Metric, table)
	if skip != nil {
		o.Skip = skip
		return
	}

	category := o.Metric.CategoryColumn()
	if category == frame.ColAgent && !f.HasAgent {
		category = frame.ColItem
	}
	w, err := frame.Pivot(f, frame.ColTime, category, frame.ColValue)
	if err != nil {
		reason := SkipMalformed
		var dup *frame.DuplicateKeyError
		if errors.As(err, &dup) {
			reason = SkipDuplicateKey
		}
		o.Skip = p.notice(ctx, o.Key, o.Metric, reason, err)
		return
	}
	o.Frame = w
	o.Average = w.RowMean()
}

// prepare converts a sheet and applies the cutoff, the ratio and order
// smoothing.
func (p *Pipeline) prepare(ctx context.Context, key SelectionKey, m Metric, table *frame.Table) (*frame.LongFrame, *SkipNotice) {
	if table == nil {
		return nil, p.notice(ctx, key, m, SkipMissingTable, fmt.Errorf("sheet %q not found in %s", m, key.FileName()))
	}
	f, err := frame.FromTable(table)
	if err != nil {
		return nil, p.notice(ctx, key, m, SkipMalformed, err)
	}
	f = frame.FilterFromTime(f, p.cfg.TimeCutoff)
	if f.Len() == 0 {
		return nil, p.notice(ctx, key, m, SkipEmptyResult, fmt.Errorf("no rows after period %d", p.cfg.TimeCutoff))
	}

	if p.cfg.DeriveRatio && m.IsState() && f.HasItem(ItemOrder) && f.HasItem(ItemDemand) {
		f = frame.DeriveRatio(f, ItemOrder, ItemDemand, ItemOrderToDemand, p.cfg.Division)
	}
	if m.IsDistributorState() && f.HasItem(ItemOrder) {
		f = frame.SmoothOrders(f, ItemOrder, p.cfg.SmoothingWindow, p.cfg.Rounding)
	}
	return f, nil
}

func (p *Pipeline) notice(ctx context.Context, key SelectionKey, m Metric, reason SkipReason, err error) *SkipNotice {
	p.logger.WarnContext(ctx, "selection skipped",
		slog.String("selection", key.String()),
		slog.String("metric", string(m)),
		slog.String("reason", string(reason)),
		slog.String("error", err.Error()))
	return &SkipNotice{
		Key:     key,
		Metric:  m,
		Reason:  reason,
		Message: fmt.Sprintf("%s for %s skipped: %v", m, key, err),
	}
}

func metricNames(metrics []Metric) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return names
}
