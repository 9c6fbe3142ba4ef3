package listener_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/listener"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordRunStart(ctx context.Context, run *model.RunExecution) { m.Called(run) }
func (m *mockRecorder) RecordRunEnd(ctx context.Context, run *model.RunExecution) { m.Called(run) }
func (m *mockRecorder) RecordStageStart(ctx context.Context, stage *model.StageExecution) {
	m.Called(stage)
}
func (m *mockRecorder) RecordStageEnd(ctx context.Context, stage *model.StageExecution) {
	m.Called(stage)
}
func (m *mockRecorder) RecordSpectrum(ctx context.Context, record *model.SpectrumRecord) {}
func (m *mockRecorder) RecordDuration(ctx context.Context, name string, d time.Duration) {}
func (m *mockRecorder) Flush(ctx context.Context) error { return nil }

func TestMetricsListeners_Forward(t *testing.T) {
	rec := &mockRecorder{}
	run := model.NewRunExecution("r", "c")
	stage := model.NewStageExecution(run, "copy_config_file", "setup")

	rec.On("RecordRunStart", run).Once()
	rec.On("RecordRunEnd", run).Once()
	rec.On("RecordStageStart", stage).Once()
	rec.On("RecordStageEnd", stage).Once()

	ctx := context.Background()
	rl := listener.NewMetricsRunListener(rec)
	sl := listener.NewMetricsStageListener(rec)
	rl.BeforeRun(ctx, run)
	sl.BeforeStage(ctx, stage)
	sl.AfterStage(ctx, stage)
	rl.AfterRun(ctx, run)

	rec.AssertExpectations(t)
}

func TestLoggingListeners_NeverLogErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug)
	ctx := context.Background()

	run := model.NewRunExecution("2024-03-09-14-05-07", "cfg.yaml")
	run.MarkAsStarted()
	stage := model.NewStageExecution(run, "compile_turbospectrum", "setup")
	stage.MarkAsStarted()

	rl := listener.NewLoggingRunListener(log)
	sl := listener.NewLoggingStageListener(log)
	rl.BeforeRun(ctx, run)
	sl.BeforeStage(ctx, stage)
	stage.MarkAsFailed(errors.New("make failed"))
	sl.AfterStage(ctx, stage)
	run.MarkAsFailed(errors.New("make failed"))
	rl.AfterRun(ctx, run)

	out := buf.String()
	assert.Contains(t, out, "[INFO] Starting run 2024-03-09-14-05-07")
	assert.Contains(t, out, "[WARN] Stage compile_turbospectrum failed")
	assert.Contains(t, out, "[WARN] Run 2024-03-09-14-05-07 finished with status FAILED")
	assert.NotContains(t, out, "[ERROR]")
}
