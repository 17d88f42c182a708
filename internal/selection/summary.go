package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"invdash/internal/frame"
	"invdash/internal/workbook"
)

// Statistic names used in summary rows besides frame.Stat values.
const (
	StatMin    = "min"
	StatQ1     = "q1"
	StatMedian = "median"
	StatQ3     = "q3"
	StatMax    = "max"
)

// stateStats lists the statistics reported per state item. Items not listed
// are not summarised.
var stateStats = []struct {
	item  string
	stats []frame.Stat
}{
	{ItemBacklog, []frame.Stat{frame.StatMean, frame.StatStd}},
	{ItemInventory, []frame.Stat{frame.StatMean, frame.StatStd}},
	{ItemOrder, []frame.Stat{frame.StatMean, frame.StatMAD}},
	{ItemLeadTime, []frame.Stat{frame.StatMean, frame.StatStd, frame.StatCV}},
}

// Summarize computes the key metrics of every selected scenario over the
// filtered raw series: backlog and inventory level and spread, order
// fluctuation, lead-time level and stability, trust distributions, mean
// shipments and mean reward per agent.
func (p *Pipeline) Summarize(ctx context.Context, sel Selections) (*SummaryReport, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "selection.Summarize")
	defer span.End()
	defer p.tel.run(ctx, "summary", start)

	report := newSummaryReport(sel.Check(p.cfg.Schema, ViewSummary))
	if Blocked(report.Guidance) {
		return report, nil
	}
	metrics := p.cfg.Schema.Metrics()

	for _, key := range sel.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tables, notice, err := p.load(ctx, key, metricNames(metrics))
		if err != nil {
			return nil, err
		}
		if notice != nil {
			p.tel.skip(ctx, notice.Reason)
			report.Skipped = append(report.Skipped, *notice)
			continue
		}
		for _, m := range metrics {
			rows, skip := p.summarizeSheet(ctx, key, m, tables[string(m)])
			if skip != nil {
				p.tel.skip(ctx, skip.Reason)
				report.Skipped = append(report.Skipped, *skip)
				continue
			}
			report.Rows = append(report.Rows, rows...)
		}
	}

	span.SetAttributes(attribute.Int("rows", len(report.Rows)))
	return report, nil
}

func (p *Pipeline) filtered(ctx context.Context, key SelectionKey, m Metric, table *frame.Table) (*frame.LongFrame, *SkipNotice) {
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
	return f, nil
}

func (p *Pipeline) summarizeSheet(ctx context.Context, key SelectionKey, m Metric, table *frame.Table) ([]SummaryRow, *SkipNotice) {
	f, skip := p.filtered(ctx, key, m, table)
	if skip != nil {
		return nil, skip
	}

	row := func(item, stat string, v float64) SummaryRow {
		return SummaryRow{
			Agent:      key.Agent,
			Scenario:   key.Sensitivity,
			Disruption: key.Disruption,
			Entity:     string(m),
			Item:       item,
			Statistic:  stat,
			Value:      cellOf(v),
		}
	}

	var rows []SummaryRow
	switch {
	case m.IsState():
		for _, spec := range stateStats {
			if !f.HasItem(spec.item) {
				continue
			}
			for _, st := range spec.stats {
				agg, err := frame.Aggregate(f, []string{frame.ColItem}, st)
				if err != nil {
					return nil, p.notice(ctx, key, m, SkipMalformed, err)
				}
				rows = append(rows, row(spec.item, string(st), agg[frame.GroupKey{Item: spec.item}]))
			}
		}

	case m.IsTrust():
		items, series := frame.ValuesByItem(f)
		for _, item := range items {
			box, err := frame.BoxStats(series[item])
			if err != nil {
				continue
			}
			rows = append(rows,
				row(item, StatMin, box.Min),
				row(item, StatQ1, box.Q1),
				row(item, StatMedian, box.Median),
				row(item, StatQ3, box.Q3),
				row(item, StatMax, box.Max),
			)
		}

	case m == MetricReward:
		rows = append(rows, p.rewardRows(key, f)...)

	default:
		agg, err := frame.Aggregate(f, []string{frame.ColItem}, frame.StatMean)
		if err != nil {
			return nil, p.notice(ctx, key, m, SkipMalformed, err)
		}
		for _, item := range f.Items() {
			rows = append(rows, row(item, string(frame.StatMean), agg[frame.GroupKey{Item: item}]))
		}
	}
	return rows, nil
}

// rewardRows is the mean reward per agent. Sheets without an Agent column
// are averaged per item.
func (p *Pipeline) rewardRows(key SelectionKey, f *frame.LongFrame) []SummaryRow {
	col := frame.ColAgent
	if !f.HasAgent {
		col = frame.ColItem
	}
	agg, _ := frame.Aggregate(f, []string{col}, frame.StatMean)

	rows := make([]SummaryRow, 0, len(agg))
	for _, k := range frame.SortedKeys(agg) {
		name := k.Agent
		if col == frame.ColItem {
			name = k.Item
		}
		rows = append(rows, SummaryRow{
			Agent:      key.Agent,
			Scenario:   key.Sensitivity,
			Disruption: key.Disruption,
			Entity:     string(MetricReward),
			Item:       name,
			Statistic:  string(frame.StatMean),
			Value:      cellOf(agg[k]),
		})
	}
	return rows
}

// RewardsAndTime builds the rewards table: the mean reward of each agent in
// the Reward sheet and the mean wall-clock time from the matching timing
// workbook, per scenario.
func (p *Pipeline) RewardsAndTime(ctx context.Context, sel Selections) (*SummaryReport, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "selection.RewardsAndTime")
	defer span.End()
	defer p.tel.run(ctx, "rewards", start)

	report := newSummaryReport(sel.Check(p.cfg.Schema, ViewSummary))
	if Blocked(report.Guidance) {
		return report, nil
	}

	for _, key := range sel.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tables, notice, err := p.load(ctx, key, []string{string(MetricReward)})
		if err != nil {
			return nil, err
		}
		if notice != nil {
			notice.Metric = MetricReward
			report.Skipped = append(report.Skipped, *notice)
		} else if f, skip := p.filtered(ctx, key, MetricReward, tables[string(MetricReward)]); skip != nil {
			report.Skipped = append(report.Skipped, *skip)
		} else {
			report.Rows = append(report.Rows, p.rewardRows(key, f)...)
		}

		row, skip, err := p.timing(ctx, key)
		if err != nil {
			return nil, err
		}
		if skip != nil {
			report.Skipped = append(report.Skipped, *skip)
			continue
		}
		report.Rows = append(report.Rows, row)
	}
	for _, s := range report.Skipped {
		p.tel.skip(ctx, s.Reason)
	}
	return report, nil
}

// timing averages the Value column of the timing workbook. No cutoff is
// applied: the sheet holds one row per training episode.
func (p *Pipeline) timing(ctx context.Context, key SelectionKey) (SummaryRow, *SkipNotice, error) {
	path := TimingPathFor(p.cfg.DataDir, key)
	skip := func(reason SkipReason, err error) (SummaryRow, *SkipNotice, error) {
		p.logger.WarnContext(ctx, "timing unavailable",
			slog.String("selection", key.String()),
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()))
		return SummaryRow{}, &SkipNotice{
			Key:     key,
			Reason:  reason,
			Message: fmt.Sprintf("%s for %s skipped: %v", TimingEntity, key, err),
		}, nil
	}

	tables, err := p.loader.Load(ctx, path, []string{p.cfg.TimingSheet})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SummaryRow{}, nil, ctxErr
		}
		if errors.Is(err, workbook.ErrFileNotFound) {
			return skip(SkipMissingFile, err)
		}
		return skip(SkipUnreadable, err)
	}
	table, ok := tables[p.cfg.TimingSheet]
	if !ok {
		return skip(SkipMissingTable, fmt.Errorf("sheet %q not found in %s", p.cfg.TimingSheet, key.TimingFileName()))
	}
	values, err := table.ColumnValues(frame.ColValue)
	if err != nil {
		return skip(SkipMalformed, err)
	}
	if len(values) == 0 {
		return skip(SkipEmptyResult, errors.New("no timing rows"))
	}

	return SummaryRow{
		Agent:      key.Agent,
		Scenario:   key.Sensitivity,
		Disruption: key.Disruption,
		Entity:     TimingEntity,
		Statistic:  string(frame.StatMean),
		Value:      cellOf(frame.Compute(values, frame.StatMean)),
	}, nil, nil
}

// cellOf turns a statistic into a cell; NaN and infinities are empty.
func cellOf(v float64) frame.Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return frame.Cell{}
	}
	return frame.Number(v)
}
