package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts what the use cases do. A nil *Metrics records nothing.
type Metrics struct {
	schedulesGenerated metric.Int64Counter
	paymentsApplied    metric.Int64Counter
	postingsFailed     metric.Int64Counter
	publishDeferrals   metric.Int64Counter
	depreciationRuns   metric.Int64Counter
	periodsDepreciated metric.Int64Counter
}

// NewMetrics creates the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.schedulesGenerated, err = meter.Int64Counter("finance_schedules_generated_total",
		metric.WithDescription("Schedules generated on activation")); err != nil {
		return nil, fmt.Errorf("metrics: schedules generated: %w", err)
	}
	if m.paymentsApplied, err = meter.Int64Counter("finance_payments_applied_total",
		metric.WithDescription("Payments applied to schedules")); err != nil {
		return nil, fmt.Errorf("metrics: payments applied: %w", err)
	}
	if m.postingsFailed, err = meter.Int64Counter("finance_postings_failed_total",
		metric.WithDescription("Journal posting attempts that failed")); err != nil {
		return nil, fmt.Errorf("metrics: postings failed: %w", err)
	}
	if m.publishDeferrals, err = meter.Int64Counter("finance_events_deferred_total",
		metric.WithDescription("Events left to the outbox relay after a failed publish")); err != nil {
		return nil, fmt.Errorf("metrics: events deferred: %w", err)
	}
	if m.depreciationRuns, err = meter.Int64Counter("finance_depreciation_runs_total",
		metric.WithDescription("Batch depreciation runs")); err != nil {
		return nil, fmt.Errorf("metrics: depreciation runs: %w", err)
	}
	if m.periodsDepreciated, err = meter.Int64Counter("finance_depreciation_periods_total",
		metric.WithDescription("Depreciation periods realised")); err != nil {
		return nil, fmt.Errorf("metrics: depreciation periods: %w", err)
	}
	return &m, nil
}

func (m *Metrics) scheduleGenerated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.schedulesGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) paymentApplied(ctx context.Context, kind, mode string) {
	if m == nil {
		return
	}
	m.paymentsApplied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("mode", mode),
	))
}

func (m *Metrics) postingFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.postingsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) publishDeferred(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.publishDeferrals.Add(ctx, int64(n))
}

func (m *Metrics) depreciationRun(ctx context.Context, periods int, failed bool) {
	if m == nil {
		return
	}
	m.depreciationRuns.Add(ctx, 1, metric.WithAttributes(attribute.Bool("failed", failed)))
	m.periodsDepreciated.Add(ctx, int64(periods))
}
