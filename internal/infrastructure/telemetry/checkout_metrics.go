package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// CheckoutMetrics counts saga outcomes, compensations, commission lines and
// subscriber failures.
type CheckoutMetrics struct {
	sagaTotal          *Counter
	sagaDuration       *Histogram
	compensationTotal  *Counter
	commissionLines    *Counter
	subscriberFailures *Counter
}

// NewCheckoutMetrics registers the instruments on meter
func NewCheckoutMetrics(meter metric.Meter) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &CheckoutMetrics{}
	var err error

	if m.sagaTotal, err = NewCounter(meter, "marketplace_saga_total", "Saga executions by outcome", "{sagas}"); err != nil {
		return nil, err
	}
	if m.sagaDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "marketplace_saga_duration_seconds",
		Description: "Saga execution time",
		Unit:        "s",
		Boundaries:  SagaDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.compensationTotal, err = NewCounter(meter, "marketplace_saga_compensation_total", "Compensations by step and outcome", "{steps}"); err != nil {
		return nil, err
	}
	if m.commissionLines, err = NewCounter(meter, "marketplace_commission_lines_total", "Commission lines created", "{lines}"); err != nil {
		return nil, err
	}
	if m.subscriberFailures, err = NewCounter(meter, "marketplace_subscriber_failures_total", "Event subscriber failures after retries", "{failures}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSaga records one saga execution
func (m *CheckoutMetrics) RecordSaga(ctx context.Context, workflow, outcome string, d time.Duration) {
	m.sagaTotal.Inc(ctx, AttrWorkflow.String(workflow), AttrOutcome.String(outcome))
	m.sagaDuration.RecordDuration(ctx, d, AttrWorkflow.String(workflow), AttrOutcome.String(outcome))
}

// RecordCompensation records one compensation attempt
func (m *CheckoutMetrics) RecordCompensation(ctx context.Context, workflow, step string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.compensationTotal.Inc(ctx, AttrWorkflow.String(workflow), AttrStep.String(step), AttrOutcome.String(outcome))
}

// RecordCommissionLines counts lines written for one order
func (m *CheckoutMetrics) RecordCommissionLines(ctx context.Context, currency string, n int) {
	m.commissionLines.Add(ctx, int64(n), AttrCurrency.String(currency))
}

// RecordSubscriberFailure counts a subscriber that gave up on an event
func (m *CheckoutMetrics) RecordSubscriberFailure(ctx context.Context, subscriber, eventType string) {
	m.subscriberFailures.Inc(ctx, AttrSubscriber.String(subscriber), AttrEventType.String(eventType))
}
