package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const serviceName = "tswrapper"

// Params holds the dependencies of the metric and tracing providers.
type Params struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *logger.Logger
}

func newResource(cfg *config.Config) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("tswrapper.run_name", cfg.RunName),
	)
}

// NewMetricRecorder selects the recorder configured by metrics.backend and registers
// its flush on application stop. Flush failures are logged, not returned.
func NewMetricRecorder(p Params) (MetricRecorder, error) {
	log := logger.OrDefault(p.Logger)
	switch p.Config.Metrics.Backend {
	case "prometheus":
		r := NewPrometheusRecorder(p.Config.MetricsTextfile(), log)
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := r.Flush(ctx); err != nil {
					log.Warnf("Failed to flush Prometheus metrics: %v", err)
				}
				return nil
			},
		})
		return r, nil
	case "otel":
		exporter, err := newMetricExporter(context.Background(), p.Config.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(newResource(p.Config)),
		)
		r, err := NewOTelRecorder(mp, log)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := mp.Shutdown(ctx); err != nil {
					log.Warnf("Failed to shut down OpenTelemetry meter provider: %v", err)
				}
				return nil
			},
		})
		return r, nil
	default:
		return NewNoOpMetricRecorder(), nil
	}
}

func newMetricExporter(ctx context.Context, cfg config.MetricsConfig) (sdkmetric.Exporter, error) {
	if cfg.OTLPProtocol == "grpc" {
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
	if cfg.OTLPEndpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
	}
	return otlpmetrichttp.New(ctx, opts...)
}

// NewTracer returns an OpenTelemetry tracer when tracing is enabled and a no-op tracer otherwise.
func NewTracer(p Params) (Tracer, error) {
	log := logger.OrDefault(p.Logger)
	if !p.Config.Tracing.Enabled {
		return NewNoOpTracer(), nil
	}

	exporter, err := newSpanExporter(context.Background(), p.Config.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(p.Config)),
	)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				log.Warnf("Failed to shut down OpenTelemetry tracer provider: %v", err)
			}
			return nil
		},
	})
	log.Debugf("Tracing enabled (%s %s)", p.Config.Tracing.Protocol, p.Config.Tracing.Endpoint)
	return NewOpenTelemetryTracer(tp), nil
}

func newSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Protocol == "grpc" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	return otlptracehttp.New(ctx, opts...)
}

// Module provides the MetricRecorder and Tracer selected by configuration.
var Module = fx.Options(
	fx.Provide(NewMetricRecorder),
	fx.Provide(NewTracer),
)
