package inmemory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository/inmemory"
)

func TestInMemoryRunRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryRunRepository()

	run := model.NewRunExecution("2024-03-09-14-05-07", "cfg.yaml")
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.Error(t, repo.SaveRun(ctx, run), "duplicate IDs are rejected")

	first := model.NewStageExecution(run, "set_up_output_directory", "setup")
	require.NoError(t, repo.SaveStage(ctx, first))
	second := model.NewStageExecution(run, "copy_config_file", "setup")
	second.StartTime = first.StartTime.Add(time.Millisecond)
	require.NoError(t, repo.SaveStage(ctx, second))

	first.MarkAsStarted()
	first.MarkAsCompleted()
	require.NoError(t, repo.UpdateStage(ctx, first))

	run.MarkAsStarted()
	run.MarkAsFailed(errors.New("disk full"))
	require.NoError(t, repo.UpdateRun(ctx, run))

	require.NoError(t, repo.SaveSpectrum(ctx, model.NewSpectrumRecord(run.ID, "000002", 5000, 4, 0, "b", time.Second, nil)))
	require.NoError(t, repo.SaveSpectrum(ctx, model.NewSpectrumRecord(run.ID, "000001", 5000, 4, 0, "a", time.Second, nil)))

	found, err := repo.FindRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, found.Status)
	assert.Equal(t, model.FailureList{"disk full"}, found.Failures)
	require.Len(t, found.StageExecutions, 2)
	assert.Equal(t, "set_up_output_directory", found.StageExecutions[0].StageName)
	assert.Equal(t, model.StatusCompleted, found.StageExecutions[0].Status)

	spectra, err := repo.ListSpectra(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, spectra, 2)
	assert.Equal(t, "000001", spectra[0].ParameterID)
}

func TestInMemoryRunRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryRunRepository()

	_, err := repo.FindRun(ctx, "missing")
	assert.True(t, errors.Is(err, repository.ErrRunNotFound))

	orphan := model.NewRunExecution("r", "c")
	assert.True(t, errors.Is(repo.UpdateRun(ctx, orphan), repository.ErrRunNotFound))
	assert.True(t, errors.Is(repo.SaveStage(ctx, model.NewStageExecution(orphan, "s", "setup")), repository.ErrRunNotFound))
}

func TestInMemoryRunRepository_StoredCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewInMemoryRunRepository()

	run := model.NewRunExecution("r", "c")
	require.NoError(t, repo.SaveRun(ctx, run))
	run.Status = model.StatusCompleted

	found, err := repo.FindRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarting, found.Status)
}
