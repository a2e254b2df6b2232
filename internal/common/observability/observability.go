package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Session outcomes recorded on the session counter.
const (
	OutcomeDone     = "done"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer

	sessionCounter otelmetric.Int64Counter
	wordCounter    otelmetric.Int64Counter
	fillDuration   otelmetric.Float64Histogram
}

func New(serviceName, jaegerEndpoint string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	sessionCounter, _ := meter.Int64Counter(
		"madlib.sessions",
		otelmetric.WithDescription("Number of madlib sessions by outcome"),
	)

	wordCounter, _ := meter.Int64Counter(
		"madlib.words.validated",
		otelmetric.WithDescription("Noun validation verdicts"),
	)

	fillDuration, _ := meter.Float64Histogram(
		"madlib.fill.duration",
		otelmetric.WithDescription("Concurrent fill duration"),
		otelmetric.WithUnit("ms"),
	)

	o := &Observability{
		meterProvider:  provider,
		meter:          meter,
		sessionCounter: sessionCounter,
		wordCounter:    wordCounter,
		fillDuration:   fillDuration,
	}

	if jaegerEndpoint != "" {
		traceExp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(traceExp),
				sdktrace.WithResource(resource.NewSchemaless(
					attribute.String("service.name", serviceName),
				)),
			)
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	return o
}

// Tracer returns the session tracer, or a no-op tracer when tracing is off.
func (o *Observability) Tracer() trace.Tracer {
	if o.tracer != nil {
		return o.tracer
	}
	return trace.NewNoopTracerProvider().Tracer("madlib")
}

func (o *Observability) RecordSession(ctx context.Context, outcome string) {
	if o.sessionCounter != nil {
		o.sessionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordWordValidated(ctx context.Context, accepted bool) {
	if o.wordCounter != nil {
		o.wordCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.Bool("accepted", accepted),
		))
	}
}

func (o *Observability) RecordFillDuration(ctx context.Context, duration time.Duration, status string) {
	if o.fillDuration != nil {
		o.fillDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
