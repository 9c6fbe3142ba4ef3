package metrics

import (
	"context"
	"time"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, run *model.RunExecution) {}
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) {}
func (r *NoOpMetricRecorder) RecordStageStart(ctx context.Context, stage *model.StageExecution) {}
func (r *NoOpMetricRecorder) RecordStageEnd(ctx context.Context, stage *model.StageExecution) {}
func (r *NoOpMetricRecorder) RecordSpectrum(ctx context.Context, record *model.SpectrumRecord) {}
func (r *NoOpMetricRecorder) RecordDuration(ctx context.Context, name string, d time.Duration) {}
func (r *NoOpMetricRecorder) Flush(ctx context.Context) error { return nil }

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

// StartRunSpan returns ctx unchanged.
func (t *NoOpTracer) StartRunSpan(ctx context.Context, run *model.RunExecution) (context.Context, func()) {
	return ctx, func() {}
}

// StartStageSpan returns ctx unchanged.
func (t *NoOpTracer) StartStageSpan(ctx context.Context, stage *model.StageExecution) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
