package listener

import (
	"context"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	metrics "github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
)

// MetricsRunListener forwards run events to a MetricRecorder.
type MetricsRunListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsRunListener(recorder metrics.MetricRecorder) *MetricsRunListener {
	return &MetricsRunListener{recorder: recorder}
}

func (l *MetricsRunListener) BeforeRun(ctx context.Context, run *model.RunExecution) {
	l.recorder.RecordRunStart(ctx, run)
}

func (l *MetricsRunListener) AfterRun(ctx context.Context, run *model.RunExecution) {
	l.recorder.RecordRunEnd(ctx, run)
}

var _ port.RunListener = (*MetricsRunListener)(nil)

// MetricsStageListener forwards stage events to a MetricRecorder.
type MetricsStageListener struct {
	recorder metrics.MetricRecorder
}

func NewMetricsStageListener(recorder metrics.MetricRecorder) *MetricsStageListener {
	return &MetricsStageListener{recorder: recorder}
}

func (l *MetricsStageListener) BeforeStage(ctx context.Context, stage *model.StageExecution) {
	l.recorder.RecordStageStart(ctx, stage)
}

func (l *MetricsStageListener) AfterStage(ctx context.Context, stage *model.StageExecution) {
	l.recorder.RecordStageEnd(ctx, stage)
}

var _ port.StageListener = (*MetricsStageListener)(nil)
