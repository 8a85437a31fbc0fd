package license

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OpenTelemetry instruments for entitlement operations.
type Metrics struct {
	trialStarts        metric.Int64Counter
	activationAttempts metric.Int64Counter
	statusQueries      metric.Int64Counter
	statusDuration     metric.Float64Histogram
}

// NewMetrics registers the entitlement instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	trialStarts, err := meter.Int64Counter("entitlement.trial.starts",
		metric.WithDescription("Trial start attempts by outcome"))
	if err != nil {
		return nil, err
	}
	activationAttempts, err := meter.Int64Counter("entitlement.activation.attempts",
		metric.WithDescription("License activation attempts by outcome"))
	if err != nil {
		return nil, err
	}
	statusQueries, err := meter.Int64Counter("entitlement.status.queries",
		metric.WithDescription("Status queries by resulting state"))
	if err != nil {
		return nil, err
	}
	statusDuration, err := meter.Float64Histogram("entitlement.status.duration",
		metric.WithDescription("Status query duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		trialStarts:        trialStarts,
		activationAttempts: activationAttempts,
		statusQueries:      statusQueries,
		statusDuration:     statusDuration,
	}, nil
}

func (m *Metrics) recordTrialStart(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.trialStarts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) recordActivation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.activationAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) recordStatus(ctx context.Context, state State, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.statusQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(state))))
	m.statusDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0)
}
