package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rescuedesk"

// Metrics holds the rescue engine's instruments. A nil *Metrics records nothing.
type Metrics struct {
	PlansGenerated  metric.Int64Counter
	PlanTransitions metric.Int64Counter
	StepsExecuted   metric.Int64Counter
	StepDuration    metric.Float64Histogram
	PlanDuration    metric.Float64Histogram
}

// NewMetrics creates all instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(meterName))
}

// NewMetricsWithMeter creates all instruments on meter.
func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.PlansGenerated, err = meter.Int64Counter("rescuedesk.plans.generated",
		metric.WithDescription("Number of rescue plans generated"))
	if err != nil {
		return nil, err
	}

	m.PlanTransitions, err = meter.Int64Counter("rescuedesk.plans.transitions",
		metric.WithDescription("Plan status transitions by target status"))
	if err != nil {
		return nil, err
	}

	m.StepsExecuted, err = meter.Int64Counter("rescuedesk.steps.executed",
		metric.WithDescription("Step attempts by action and outcome"))
	if err != nil {
		return nil, err
	}

	m.StepDuration, err = meter.Float64Histogram("rescuedesk.step.duration_seconds",
		metric.WithDescription("Step duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.PlanDuration, err = meter.Float64Histogram("rescuedesk.plan.duration_seconds",
		metric.WithDescription("Duration of one execute call in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordGenerated counts a generated plan.
func (m *Metrics) RecordGenerated(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.PlansGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

// RecordTransition counts a plan entering status.
func (m *Metrics) RecordTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.PlanTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStep counts a step attempt and records its duration.
func (m *Metrics) RecordStep(ctx context.Context, action, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("action", action), attribute.String("status", status))
	m.StepsExecuted.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordPlanRun records how long an execute call took and how it ended.
func (m *Metrics) RecordPlanRun(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PlanDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}
