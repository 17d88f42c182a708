package selection

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "invdash/selection"

type telemetry struct {
	processed metric.Int64Counter
	skipped   metric.Int64Counter
	duration  metric.Float64Histogram
}

func newTelemetry(meter metric.Meter) (*telemetry, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	processed, err := meter.Int64Counter(
		"selections_processed_total",
		metric.WithDescription("Selection outcomes produced, by metric"),
		metric.WithUnit("{outcome}"),
	)
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter(
		"selections_skipped_total",
		metric.WithDescription("Selection outcomes skipped, by reason"),
		metric.WithUnit("{outcome}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Duration of one pipeline run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &telemetry{processed: processed, skipped: skipped, duration: duration}, nil
}

func (t *telemetry) outcome(ctx context.Context, o Outcome) {
	t.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("metric", string(o.Metric))))
	if o.Skip != nil {
		t.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(o.Skip.Reason))))
	}
}

func (t *telemetry) skip(ctx context.Context, reason SkipReason) {
	t.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
}

func (t *telemetry) run(ctx context.Context, op string, start time.Time) {
	t.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("operation", op)))
}
