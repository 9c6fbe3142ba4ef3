package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
)

func TestRunExecution_Lifecycle(t *testing.T) {
	run := model.NewRunExecution("2024-03-09-14-05-07", "input/configuration.yaml")
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.StatusStarting, run.Status)
	assert.Equal(t, model.ExitStatusUnknown, run.ExitStatus)
	assert.Nil(t, run.EndTime)

	run.MarkAsStarted()
	assert.Equal(t, model.StatusStarted, run.Status)

	run.MarkAsCompleted()
	assert.Equal(t, model.StatusCompleted, run.Status)
	assert.Equal(t, model.ExitStatusCompleted, run.ExitStatus)
	require.NotNil(t, run.EndTime)
	assert.True(t, run.Status.IsFinished())
	assert.GreaterOrEqual(t, run.Duration(), time.Duration(0))
}

func TestRunExecution_TerminalStatesReject(t *testing.T) {
	run := model.NewRunExecution("r", "c")
	run.MarkAsStarted()
	run.MarkAsCompleted()

	assert.Error(t, run.TransitionTo(model.StatusStarted))
	assert.Error(t, run.TransitionTo(model.StatusFailed))
}

func TestRunExecution_FailuresAreDeduplicated(t *testing.T) {
	run := model.NewRunExecution("r", "c")
	run.MarkAsStarted()
	run.MarkAsFailed(errors.New("boom"))
	run.MarkAsFailed(errors.New("boom"))

	assert.Equal(t, model.StatusFailed, run.Status)
	assert.Equal(t, model.FailureList{"boom"}, run.Failures)
}

func TestStageExecution_AttachesToRun(t *testing.T) {
	run := model.NewRunExecution("r", "c")
	stage := model.NewStageExecution(run, "compile_turbospectrum", "setup")

	assert.Equal(t, run.ID, stage.RunID)
	require.Len(t, run.StageExecutions, 1)
	assert.Same(t, stage, run.StageExecutions[0])

	stage.MarkAsStarted()
	stage.MarkAsFailed(errors.New("make exited with 2"))
	assert.Equal(t, model.StatusFailed, stage.Status)
	assert.Equal(t, model.ExitStatusFailed, stage.ExitStatus)
	assert.Equal(t, model.FailureList{"make exited with 2"}, stage.Failures)
}

func TestNewSpectrumRecord(t *testing.T) {
	ok := model.NewSpectrumRecord("run", "000001", 5750, 4.5, 0, "out/000001.spec", 1500*time.Millisecond, nil)
	assert.Equal(t, model.StatusCompleted, ok.Status)
	assert.Equal(t, int64(1500), ok.DurationMillis)
	assert.Equal(t, "out/000001.spec", ok.OutputPath)

	failed := model.NewSpectrumRecord("run", "000002", 5750, 4.5, 0, "out/000002.spec", time.Second, errors.New("bsyn failed"))
	assert.Equal(t, model.StatusFailed, failed.Status)
	assert.Empty(t, failed.OutputPath)
	assert.Equal(t, "bsyn failed", failed.Error)
}

func TestFailureList_ValueScan(t *testing.T) {
	v, err := model.FailureList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var fl model.FailureList
	require.NoError(t, fl.Scan([]byte(`["x"]`)))
	assert.Equal(t, model.FailureList{"x"}, fl)

	require.NoError(t, fl.Scan(nil))
	assert.Empty(t, fl)

	assert.Error(t, fl.Scan(42))
}

func TestRunIDContext(t *testing.T) {
	ctx := model.WithRunID(context.Background(), "abc")
	assert.Equal(t, "abc", model.RunIDFromContext(ctx))
	assert.Equal(t, "", model.RunIDFromContext(context.Background()))
}
