package infra

import (
	"context"
	"log"

	"github.com/appleplayground/media-service/config"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryClient owns the OTLP metric and trace providers plus the counters
// the upload and follow paths record against.
type TelemetryClient struct {
	meterProvider *sdkmetric.MeterProvider
	traceProvider *sdktrace.TracerProvider
	Tracer        trace.Tracer

	UploadsStarted   metric.Int64Counter
	UploadsCompleted metric.Int64Counter
	UploadsFailed    metric.Int64Counter
	FollowMutations  metric.Int64Counter
}

func InitTelemetryClient(cfg *config.EnvConfig) *TelemetryClient {
	ctx := context.Background()

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.Grafana.ServiceName),
		attribute.String("deployment.environment", cfg.Environment.Mode),
	)

	metricExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		log.Fatalf("Failed to initialize OTLP metric exporter: %v", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	traceExporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(cfg.Grafana.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	))
	if err != nil {
		log.Fatalf("Failed to initialize OTLP trace exporter: %v", err)
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		log.Printf("Warning: failed to start runtime instrumentation: %v", err)
	}

	meter := meterProvider.Meter(cfg.Grafana.ServiceName)

	client := &TelemetryClient{
		meterProvider: meterProvider,
		traceProvider: traceProvider,
		Tracer:        traceProvider.Tracer(cfg.Grafana.ServiceName),
	}

	client.UploadsStarted, _ = meter.Int64Counter("media.uploads.started")
	client.UploadsCompleted, _ = meter.Int64Counter("media.uploads.completed")
	client.UploadsFailed, _ = meter.Int64Counter("media.uploads.failed")
	client.FollowMutations, _ = meter.Int64Counter("media.follow.mutations")

	return client
}

func (t *TelemetryClient) Shutdown(ctx context.Context) {
	if t.meterProvider != nil {
		_ = t.meterProvider.Shutdown(ctx)
	}
	if t.traceProvider != nil {
		_ = t.traceProvider.Shutdown(ctx)
	}
}
