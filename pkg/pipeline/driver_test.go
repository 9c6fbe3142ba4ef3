package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/pipeline"
	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository/inmemory"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

var allStages = []string{
	pipeline.StageSetUpOutputDirectory,
	pipeline.StageCopyConfigFile,
	pipeline.StageCollectModelAtmosphereParameters,
	pipeline.StageGenerateParameters,
	pipeline.StageCompileTurbospectrum,
	pipeline.StageCompileInterpolator,
	pipeline.StageCreateTemplateInterpolatorScript,
	pipeline.StageGenerateAllSpectra,
	pipeline.StagePublishSpectra,
	pipeline.StageRemoveTempFiles,
}

// fakeStages implements every collaborator and records the order of calls.
type fakeStages struct {
	calls  []string
	fail   map[string]error
	models []atmosphere.Model
	params []parameters.StellarParameters

	gotModels []atmosphere.Model
	gotParams []parameters.StellarParameters
	runID     string
}

func newFakeStages() *fakeStages {
	return &fakeStages{
		fail:   map[string]error{},
		models: []atmosphere.Model{{Name: "p5000_g+4.0_m0.0_t01_st_z+0.00_a+0.00.mod", Teff: 5000, Logg: 4}},
		params: []parameters.StellarParameters{{ID: "000001", Teff: 5000, Logg: 4, Vmic: 1}},
	}
}

func (f *fakeStages) step(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeStages) SetUpOutputDirectory(cfg *config.Config) error {
	return f.step(pipeline.StageSetUpOutputDirectory)
}

func (f *fakeStages) CopyConfigFile(cfg *config.Config) error {
	return f.step(pipeline.StageCopyConfigFile)
}

func (f *fakeStages) RemoveTempFiles(cfg *config.Config) error {
	return f.step(pipeline.StageRemoveTempFiles)
}

func (f *fakeStages) CollectModelAtmosphereParameters(path string) ([]atmosphere.Model, error) {
	if err := f.step(pipeline.StageCollectModelAtmosphereParameters); err != nil {
		return nil, err
	}
	return f.models, nil
}

func (f *fakeStages) GenerateParameters(cfg *config.Config) ([]parameters.StellarParameters, error) {
	if err := f.step(pipeline.StageGenerateParameters); err != nil {
		return nil, err
	}
	return f.params, nil
}

func (f *fakeStages) CompileTurbospectrum(ctx context.Context, cfg *config.Config) error {
	return f.step(pipeline.StageCompileTurbospectrum)
}

func (f *fakeStages) CompileInterpolator(ctx context.Context, cfg *config.Config) error {
	return f.step(pipeline.StageCompileInterpolator)
}

func (f *fakeStages) CreateTemplateInterpolatorScript(cfg *config.Config) error {
	return f.step(pipeline.StageCreateTemplateInterpolatorScript)
}

func (f *fakeStages) GenerateAllSpectra(ctx context.Context, cfg *config.Config, models []atmosphere.Model, params []parameters.StellarParameters) error {
	f.gotModels = models
	f.gotParams = params
	f.runID = model.RunIDFromContext(ctx)
	return f.step(pipeline.StageGenerateAllSpectra)
}

func (f *fakeStages) PublishSpectra(ctx context.Context, cfg *config.Config) error {
	return f.step(pipeline.StagePublishSpectra)
}

func (f *fakeStages) collaborators() pipeline.Collaborators {
	return pipeline.Collaborators{
		Output:      f,
		Atmospheres: f,
		Parameters:  f,
		Compiler:    f,
		Templates:   f,
		Spectra:     f,
		Publisher:   f,
	}
}

type recordingListener struct {
	events []string
}

func (l *recordingListener) BeforeRun(ctx context.Context, run *model.RunExecution) {
	l.events = append(l.events, "before run "+run.Status.String())
}

func (l *recordingListener) AfterRun(ctx context.Context, run *model.RunExecution) {
	l.events = append(l.events, "after run "+run.Status.String())
}

func (l *recordingListener) BeforeStage(ctx context.Context, stage *model.StageExecution) {
	l.events = append(l.events, "before "+stage.StageName)
}

func (l *recordingListener) AfterStage(ctx context.Context, stage *model.StageExecution) {
	l.events = append(l.events, "after "+stage.StageName+" "+stage.Status.String())
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.RunName = "2026-10-16-12-00-00"
	cfg.SourcePath = "input/configuration.yaml"
	cfg.Publish.Enabled = true
	cfg.Run.CleanupTempFiles = true
	return cfg
}

func TestDriver_RunsAllStagesInOrder(t *testing.T) {
	f := newFakeStages()
	repo := inmemory.NewInMemoryRunRepository()
	l := &recordingListener{}
	d := pipeline.NewDriver(testConfig(), f.collaborators(), pipeline.Observers{
		Logger:         logger.New(&bytes.Buffer{}, logger.LevelError),
		Repository:     repo,
		RunListeners:   []port.RunListener{l},
		StageListeners: []port.StageListener{l},
	})

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, allStages, f.calls)
	assert.Equal(t, f.models, f.gotModels)
	assert.Equal(t, f.params, f.gotParams)

	require.NotEmpty(t, f.runID)
	run, err := repo.FindRun(context.Background(), f.runID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, run.Status)
	assert.Equal(t, model.ExitStatusCompleted, run.ExitStatus)
	assert.Equal(t, "2026-10-16-12-00-00", run.RunName)
	require.Len(t, run.StageExecutions, len(allStages))
	for _, se := range run.StageExecutions {
		assert.Equal(t, model.StatusCompleted, se.Status, se.StageName)
	}

	assert.Equal(t, "before run STARTED", l.events[0])
	assert.Equal(t, "before "+pipeline.StageSetUpOutputDirectory, l.events[1])
	assert.Equal(t, "after "+pipeline.StageSetUpOutputDirectory+" COMPLETED", l.events[2])
	assert.Equal(t, "after run COMPLETED", l.events[len(l.events)-1])
}

func TestDriver_OptionalStagesFollowConfiguration(t *testing.T) {
	f := newFakeStages()
	cfg := testConfig()
	cfg.Publish.Enabled = false
	cfg.Run.CleanupTempFiles = false

	require.NoError(t, pipeline.NewDriver(cfg, f.collaborators(), pipeline.Observers{}).Run(context.Background()))
	assert.Equal(t, allStages[:8], f.calls)
}

func TestDriver_FirstFailureAbortsRun(t *testing.T) {
	kinds := map[string]exception.Kind{
		pipeline.StageSetUpOutputDirectory:             exception.KindIO,
		pipeline.StageCopyConfigFile:                   exception.KindIO,
		pipeline.StageCollectModelAtmosphereParameters: exception.KindParse,
		pipeline.StageGenerateParameters:               exception.KindValidation,
		pipeline.StageCompileTurbospectrum:             exception.KindCompilation,
		pipeline.StageCompileInterpolator:              exception.KindCompilation,
		pipeline.StageCreateTemplateInterpolatorScript: exception.KindIO,
		pipeline.StageGenerateAllSpectra:               exception.KindGeneration,
		pipeline.StagePublishSpectra:                   exception.KindIO,
		pipeline.StageRemoveTempFiles:                  exception.KindIO,
	}
	for i, name := range allStages {
		t.Run(name, func(t *testing.T) {
			f := newFakeStages()
			f.fail[name] = errors.New("boom")
			repo := inmemory.NewInMemoryRunRepository()
			d := pipeline.NewDriver(testConfig(), f.collaborators(), pipeline.Observers{Repository: repo})

			err := d.Run(context.Background())
			require.Error(t, err)
			assert.Equal(t, allStages[:i+1], f.calls)
			assert.Equal(t, kinds[name], exception.KindOf(err))
			assert.Contains(t, err.Error(), "boom")

			var se *pipeline.StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, name, se.Stage)
		})
	}
}

func TestDriver_KeepsPipelineErrorKind(t *testing.T) {
	f := newFakeStages()
	f.fail[pipeline.StageGenerateParameters] = exception.New(exception.KindIO, "parameters", "cannot read parameter file", nil)

	err := pipeline.NewDriver(testConfig(), f.collaborators(), pipeline.Observers{}).Run(context.Background())
	assert.Equal(t, exception.KindIO, exception.KindOf(err))
}

func TestDriver_CancelledContext(t *testing.T) {
	f := newFakeStages()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.NewDriver(testConfig(), f.collaborators(), pipeline.Observers{}).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.calls)
}

// brokenRepository fails every write.
type brokenRepository struct {
	*inmemory.InMemoryRunRepository
}

func (brokenRepository) SaveRun(ctx context.Context, run *model.RunExecution) error {
	return errors.New("database is locked")
}

func (brokenRepository) UpdateRun(ctx context.Context, run *model.RunExecution) error {
	return errors.New("database is locked")
}

func (brokenRepository) SaveStage(ctx context.Context, stage *model.StageExecution) error {
	return errors.New("database is locked")
}

func (brokenRepository) UpdateStage(ctx context.Context, stage *model.StageExecution) error {
	return errors.New("database is locked")
}

func TestDriver_RepositoryFailuresOnlyWarn(t *testing.T) {
	f := newFakeStages()
	var buf bytes.Buffer
	d := pipeline.NewDriver(testConfig(), f.collaborators(), pipeline.Observers{
		Logger:     logger.New(&buf, logger.LevelDebug),
		Repository: brokenRepository{inmemory.NewInMemoryRunRepository()},
	})

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, allStages, f.calls)
	assert.Contains(t, buf.String(), "[WARN] Run history: failed to save run: database is locked")
	assert.NotContains(t, buf.String(), "[ERROR]")
}

func TestPhaseOf(t *testing.T) {
	assert.Equal(t, pipeline.PhaseSetup, pipeline.PhaseOf(errors.New("plain")))
	err := &pipeline.StageError{Stage: pipeline.StagePublishSpectra, Phase: pipeline.PhasePublish, Err: errors.New("x")}
	assert.Equal(t, pipeline.PhasePublish, pipeline.PhaseOf(err))
	assert.True(t, strings.HasSuffix(err.Error(), "x"))
}
