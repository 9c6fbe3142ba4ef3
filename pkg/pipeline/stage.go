package pipeline

import (
	"context"
	"errors"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
)

// Stage names, in execution order.
const (
	StageLoadConfiguration                = "load_configuration"
	StageSetUpOutputDirectory             = "set_up_output_directory"
	StageCopyConfigFile                   = "copy_config_file"
	StageCollectModelAtmosphereParameters = "collect_model_atmosphere_parameters"
	StageGenerateParameters               = "generate_parameters"
	StageCompileTurbospectrum             = "compile_turbospectrum"
	StageCompileInterpolator              = "compile_interpolator"
	StageCreateTemplateInterpolatorScript = "create_template_interpolator_script"
	StageGenerateAllSpectra               = "generate_all_spectra"
	StagePublishSpectra                   = "publish_spectra"
	StageRemoveTempFiles                  = "remove_temp_files"
)

// Phases name the part of the run a failure is reported against.
const (
	PhaseSetup             = "setup"
	PhaseSpectraGeneration = "spectra generation"
	PhasePublish           = "publish"
	PhaseCleanup           = "cleanup"
)

// stage is one step of the run. kind classifies errors that are not PipelineErrors yet.
type stage struct {
	name  string
	phase string
	kind  exception.Kind
	run   func(ctx context.Context) error
}

// StageError reports the stage a run failed in.
type StageError struct {
	Stage string
	Phase string
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase of the stage err was raised in, or PhaseSetup when err
// carries no stage.
func PhaseOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Phase
	}
	return PhaseSetup
}
