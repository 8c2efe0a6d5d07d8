package pdfgen

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/invoicely/backend/internal/application/pdfgen"

type cycleMetrics struct {
	triggers       metric.Int64Counter
	cycles         metric.Int64Counter
	duration       metric.Float64Histogram
	rerunsDeferred metric.Int64Counter
}

func newCycleMetrics(meter metric.Meter) (*cycleMetrics, error) {
	triggers, err := meter.Int64Counter("pdfgen.triggers",
		metric.WithDescription("PDF generation triggers received"))
	if err != nil {
		return nil, err
	}
	cycles, err := meter.Int64Counter("pdfgen.cycles",
		metric.WithDescription("PDF generation cycles by outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("pdfgen.cycle.duration",
		metric.WithDescription("PDF generation cycle duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	deferred, err := meter.Int64Counter("pdfgen.reruns.deferred",
		metric.WithDescription("Pending re-runs delayed after hitting the consecutive re-run limit"))
	if err != nil {
		return nil, err
	}
	return &cycleMetrics{
		triggers:       triggers,
		cycles:         cycles,
		duration:       duration,
		rerunsDeferred: deferred,
	}, nil
}

func noopCycleMetrics() *cycleMetrics {
	m, _ := newCycleMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	return m
}

func (m *cycleMetrics) recordResult(ctx context.Context, r Result) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", string(r.Outcome)),
		attribute.String("stage", string(r.Stage)),
	)
	m.cycles.Add(ctx, 1, attrs)
	m.duration.Record(ctx, r.Duration.Seconds(), attrs)
}
