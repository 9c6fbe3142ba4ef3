package pipeline

import (
	"context"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
)

// OutputManager prepares and tidies the run directory.
type OutputManager interface {
	SetUpOutputDirectory(cfg *config.Config) error
	CopyConfigFile(cfg *config.Config) error
	RemoveTempFiles(cfg *config.Config) error
}

// AtmosphereCollector lists the model atmospheres available for interpolation.
type AtmosphereCollector interface {
	CollectModelAtmosphereParameters(path string) ([]atmosphere.Model, error)
}

// ParameterGenerator produces the stellar parameter sets of a run.
type ParameterGenerator interface {
	GenerateParameters(cfg *config.Config) ([]parameters.StellarParameters, error)
}

// Compiler builds Turbospectrum and the interpolator.
type Compiler interface {
	CompileTurbospectrum(ctx context.Context, cfg *config.Config) error
	CompileInterpolator(ctx context.Context, cfg *config.Config) error
}

// TemplateWriter writes the interpolator script template.
type TemplateWriter interface {
	CreateTemplateInterpolatorScript(cfg *config.Config) error
}

// SpectraGenerator generates one spectrum per parameter set.
type SpectraGenerator interface {
	GenerateAllSpectra(ctx context.Context, cfg *config.Config, models []atmosphere.Model, params []parameters.StellarParameters) error
}

// SpectraPublisher uploads finished spectra.
type SpectraPublisher interface {
	PublishSpectra(ctx context.Context, cfg *config.Config) error
}

// Collaborators are the components that do the work of each stage.
// Publisher may be nil when publishing is disabled.
type Collaborators struct {
	Output      OutputManager
	Atmospheres AtmosphereCollector
	Parameters  ParameterGenerator
	Compiler    Compiler
	Templates   TemplateWriter
	Spectra     SpectraGenerator
	Publisher   SpectraPublisher
}
