// Package pipeline drives a spectra generation run: it executes the stages in order,
// records each of them and reports the outcome of the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	model "github.com/littlepadawan/turbospectrum-wrapper/pkg/domain/model"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

const moduleName = "pipeline"

// Observers receive the execution records of a run. Every field is optional.
type Observers struct {
	Logger         *logger.Logger
	Repository     repository.RunRepository
	Recorder       metrics.MetricRecorder
	Tracer         metrics.Tracer
	RunListeners   []port.RunListener
	StageListeners []port.StageListener
}

// Driver executes the stages of one run.
type Driver struct {
	cfg            *config.Config
	c              Collaborators
	log            *logger.Logger
	repo           repository.RunRepository
	recorder       metrics.MetricRecorder
	tracer         metrics.Tracer
	runListeners   []port.RunListener
	stageListeners []port.StageListener
}

// NewDriver creates a Driver for cfg.
func NewDriver(cfg *config.Config, c Collaborators, o Observers) *Driver {
	d := &Driver{
		cfg:            cfg,
		c:              c,
		log:            logger.OrDefault(o.Logger),
		repo:           o.Repository,
		recorder:       o.Recorder,
		tracer:         o.Tracer,
		runListeners:   o.RunListeners,
		stageListeners: o.StageListeners,
	}
	if d.recorder == nil {
		d.recorder = metrics.NewNoOpMetricRecorder()
	}
	if d.tracer == nil {
		d.tracer = metrics.NewNoOpTracer()
	}
	return d
}

// Run executes the stages in order and stops at the first failure, which is returned
// as a *StageError. The run ID is attached to the context passed to the stages.
func (d *Driver) Run(ctx context.Context) error {
	run := model.NewRunExecution(d.cfg.RunName, d.cfg.SourcePath)
	ctx = model.WithRunID(ctx, run.ID)

	ctx, endSpan := d.tracer.StartRunSpan(ctx, run)
	defer endSpan()

	if d.repo != nil {
		d.warnOnError("save run", d.repo.SaveRun(ctx, run))
	}
	run.MarkAsStarted()
	d.updateRun(ctx, run)
	d.recorder.RecordRunStart(ctx, run)
	for _, l := range d.runListeners {
		l.BeforeRun(ctx, run)
	}

	err := d.runStages(ctx, run)
	if err != nil {
		run.MarkAsFailed(err)
	} else {
		run.MarkAsCompleted()
	}

	d.updateRun(ctx, run)
	d.recorder.RecordRunEnd(ctx, run)
	for _, l := range d.runListeners {
		l.AfterRun(ctx, run)
	}
	return err
}

func (d *Driver) stages(models *[]atmosphere.Model, params *[]parameters.StellarParameters) []stage {
	cfg := d.cfg
	stages := []stage{
		{StageSetUpOutputDirectory, PhaseSetup, exception.KindIO, func(ctx context.Context) error {
			return d.c.Output.SetUpOutputDirectory(cfg)
		}},
		{StageCopyConfigFile, PhaseSetup, exception.KindIO, func(ctx context.Context) error {
			return d.c.Output.CopyConfigFile(cfg)
		}},
		{StageCollectModelAtmosphereParameters, PhaseSetup, exception.KindParse, func(ctx context.Context) (err error) {
			*models, err = d.c.Atmospheres.CollectModelAtmosphereParameters(cfg.Paths.ModelAtmospheres)
			return err
		}},
		{StageGenerateParameters, PhaseSetup, exception.KindValidation, func(ctx context.Context) (err error) {
			*params, err = d.c.Parameters.GenerateParameters(cfg)
			return err
		}},
		{StageCompileTurbospectrum, PhaseSetup, exception.KindCompilation, func(ctx context.Context) error {
			return d.c.Compiler.CompileTurbospectrum(ctx, cfg)
		}},
		{StageCompileInterpolator, PhaseSetup, exception.KindCompilation, func(ctx context.Context) error {
			return d.c.Compiler.CompileInterpolator(ctx, cfg)
		}},
		{StageCreateTemplateInterpolatorScript, PhaseSetup, exception.KindIO, func(ctx context.Context) error {
			return d.c.Templates.CreateTemplateInterpolatorScript(cfg)
		}},
		{StageGenerateAllSpectra, PhaseSpectraGeneration, exception.KindGeneration, func(ctx context.Context) error {
			return d.c.Spectra.GenerateAllSpectra(ctx, cfg, *models, *params)
		}},
	}
	if cfg.Publish.Enabled && d.c.Publisher != nil {
		stages = append(stages, stage{StagePublishSpectra, PhasePublish, exception.KindIO, func(ctx context.Context) error {
			return d.c.Publisher.PublishSpectra(ctx, cfg)
		}})
	}
	if cfg.Run.CleanupTempFiles {
		stages = append(stages, stage{StageRemoveTempFiles, PhaseCleanup, exception.KindIO, func(ctx context.Context) error {
			return d.c.Output.RemoveTempFiles(cfg)
		}})
	}
	return stages
}

func (d *Driver) runStages(ctx context.Context, run *model.RunExecution) error {
	var (
		models []atmosphere.Model
		params []parameters.StellarParameters
	)
	for _, s := range d.stages(&models, &params) {
		if err := d.executeStage(ctx, run, s); err != nil {
			return err
		}
	}
	return nil
}

// executeStage runs one stage wrapped in its StageExecution record.
func (d *Driver) executeStage(ctx context.Context, run *model.RunExecution, s stage) error {
	se := model.NewStageExecution(run, s.name, s.phase)
	if d.repo != nil {
		d.warnOnError("save stage "+s.name, d.repo.SaveStage(ctx, se))
	}

	stageCtx, endSpan := d.tracer.StartStageSpan(ctx, se)
	se.MarkAsStarted()
	d.recorder.RecordStageStart(stageCtx, se)
	for _, l := range d.stageListeners {
		l.BeforeStage(stageCtx, se)
	}

	err := stageCtx.Err()
	if err == nil {
		err = s.run(stageCtx)
	}
	if err != nil {
		err = exception.Wrap(err, s.kind, moduleName, fmt.Sprintf("%s failed", s.name))
		se.MarkAsFailed(err)
		d.tracer.RecordError(stageCtx, s.name, err)
	} else {
		se.MarkAsCompleted()
	}
	endSpan()

	d.recorder.RecordStageEnd(stageCtx, se)
	for _, l := range d.stageListeners {
		l.AfterStage(stageCtx, se)
	}
	if d.repo != nil {
		d.warnOnError("update stage "+s.name, d.repo.UpdateStage(ctx, se))
	}

	if err != nil {
		return &StageError{Stage: s.name, Phase: s.phase, Err: err}
	}
	return nil
}

func (d *Driver) updateRun(ctx context.Context, run *model.RunExecution) {
	if d.repo != nil {
		d.warnOnError("update run", d.repo.UpdateRun(ctx, run))
	}
}

// warnOnError logs run history failures; they never abort the run.
func (d *Driver) warnOnError(op string, err error) {
	if err != nil {
		d.log.Warnf("Run history: failed to %s: %v", op, err)
	}
}
