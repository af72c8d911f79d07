package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"careerflow/internal/common/logger"
)

// Submission outcomes.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultTimeout  = "timeout"
	ResultInFlight = "in_flight"
)

// Observability holds the otel instruments for the submission path.
type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	sideEffectFailures otelmetric.Int64Counter
}

type Option func(*options)

type options struct {
	reader metric.Reader
}

// WithReader replaces the prometheus exporter, e.g. with a manual reader in tests.
func WithReader(r metric.Reader) Option {
	return func(o *options) { o.reader = r }
}

// New builds the meter provider. Without options the instruments are exported
// through the default prometheus registry, next to the client_golang metrics.
func New(serviceName string, log logger.Logger, opts ...Option) *Observability {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.reader == nil {
		exporter, err := prometheus.New()
		if err != nil {
			log.Warn("failed to create prometheus exporter, otel metrics disabled", map[string]interface{}{
				"error": err,
			})
			return &Observability{}
		}
		o.reader = exporter
	}

	provider := metric.NewMeterProvider(metric.WithReader(o.reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	submissionCounter, _ := meter.Int64Counter(
		"submissions.processed",
		otelmetric.WithDescription("Number of application submissions by result"),
	)

	submissionDuration, _ := meter.Float64Histogram(
		"submissions.duration",
		otelmetric.WithDescription("Webhook round trip duration"),
		otelmetric.WithUnit("ms"),
	)

	sideEffectFailures, _ := meter.Int64Counter(
		"submissions.side_effect_failures",
		otelmetric.WithDescription("Post-submission steps that failed (record, email, sms)"),
	)

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		submissionCounter:  submissionCounter,
		submissionDuration: submissionDuration,
		sideEffectFailures: sideEffectFailures,
	}
}

func (o *Observability) RecordSubmission(ctx context.Context, duration time.Duration, result string) {
	attrs := otelmetric.WithAttributes(attribute.String("result", result))
	if o.submissionCounter != nil {
		o.submissionCounter.Add(ctx, 1, attrs)
	}
	if o.submissionDuration != nil && result != ResultInFlight {
		o.submissionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordSideEffectFailure(ctx context.Context, step string) {
	if o.sideEffectFailures != nil {
		o.sideEffectFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("step", step)))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
