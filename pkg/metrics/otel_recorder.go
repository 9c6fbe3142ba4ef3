package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	logger "github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const instrumentationName = "github.com/littlepadawan/turbospectrum-wrapper"

// flusher is implemented by the SDK meter provider.
type flusher interface {
	ForceFlush(ctx context.Context) error
}

// OTelRecorder is an OpenTelemetry implementation of MetricRecorder.
type OTelRecorder struct {
	provider metric.MeterProvider
	log      *logger.Logger

	runs          metric.Int64Counter
	runDuration   metric.Float64Histogram
	stages        metric.Int64Counter
	stageDuration metric.Float64Histogram
	spectra       metric.Int64Counter
	spectrumTime  metric.Float64Histogram
	operationTime metric.Float64Histogram
}

// NewOTelRecorder creates instruments on the given provider.
func NewOTelRecorder(provider metric.MeterProvider, log *logger.Logger) (*OTelRecorder, error) {
	meter := provider.Meter(instrumentationName)
	r := &OTelRecorder{provider: provider, log: logger.OrDefault(log)}

	var err error
	if r.runs, err = meter.Int64Counter("tswrapper.runs", metric.WithDescription("Pipeline runs by status.")); err != nil {
		return nil, err
	}
	if r.runDuration, err = meter.Float64Histogram("tswrapper.run.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.stages, err = meter.Int64Counter("tswrapper.stages", metric.WithDescription("Pipeline stages by status.")); err != nil {
		return nil, err
	}
	if r.stageDuration, err = meter.Float64Histogram("tswrapper.stage.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.spectra, err = meter.Int64Counter("tswrapper.spectra", metric.WithDescription("Spectra by outcome.")); err != nil {
		return nil, err
	}
	if r.spectrumTime, err = meter.Float64Histogram("tswrapper.spectrum.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if r.operationTime, err = meter.Float64Histogram("tswrapper.operation.duration", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OTelRecorder) RecordRunStart(ctx context.Context, run *model.RunExecution) {
	r.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", run.Status.String())))
}

func (r *OTelRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) {
	if run.EndTime == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", run.Status.String()))
	r.runs.Add(ctx, 1, attrs)
	r.runDuration.Record(ctx, run.Duration().Seconds(), attrs)
}

func (r *OTelRecorder) RecordStageStart(ctx context.Context, stage *model.StageExecution) {
	r.stages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage_name", stage.StageName),
		attribute.String("status", stage.Status.String()),
	))
}

func (r *OTelRecorder) RecordStageEnd(ctx context.Context, stage *model.StageExecution) {
	if stage.EndTime == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("stage_name", stage.StageName),
		attribute.String("status", stage.Status.String()),
	)
	r.stages.Add(ctx, 1, attrs)
	r.stageDuration.Record(ctx, stage.Duration().Seconds(), attrs)
}

func (r *OTelRecorder) RecordSpectrum(ctx context.Context, record *model.SpectrumRecord) {
	attrs := metric.WithAttributes(attribute.String("status", record.Status.String()))
	r.spectra.Add(ctx, 1, attrs)
	r.spectrumTime.Record(ctx, float64(record.DurationMillis)/1000, attrs)
}

func (r *OTelRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration) {
	r.operationTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("operation", name)))
}

// Flush forces the provider to export, when it supports it.
func (r *OTelRecorder) Flush(ctx context.Context) error {
	if f, ok := r.provider.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

var _ MetricRecorder = (*OTelRecorder)(nil)
