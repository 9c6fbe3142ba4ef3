package pipeline

import (
	"go.uber.org/fx"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/compilation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/interpolation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/output"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/repository"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/spectra"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/storage"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// DriverParams holds the dependencies of the Driver.
type DriverParams struct {
	fx.In
	Config      *config.Config
	Logger      *logger.Logger
	Output      *output.Manager
	Atmospheres *atmosphere.Collector
	Parameters  *parameters.Generator
	Compiler    *compilation.Compiler
	Templates   *interpolation.Writer
	Spectra     *spectra.Generator
	Publisher   *storage.Publisher `optional:"true"`

	Repository     repository.RunRepository
	Recorder       metrics.MetricRecorder
	Tracer         metrics.Tracer
	RunListeners   []port.RunListener   `group:"runListeners"`
	StageListeners []port.StageListener `group:"stageListeners"`
}

// ProvideDriver assembles the Driver from the fx graph.
func ProvideDriver(p DriverParams) *Driver {
	c := Collaborators{
		Output:      p.Output,
		Atmospheres: p.Atmospheres,
		Parameters:  p.Parameters,
		Compiler:    p.Compiler,
		Templates:   p.Templates,
		Spectra:     p.Spectra,
	}
	if p.Publisher != nil {
		c.Publisher = p.Publisher
	}
	return NewDriver(p.Config, c, Observers{
		Logger:         p.Logger,
		Repository:     p.Repository,
		Recorder:       p.Recorder,
		Tracer:         p.Tracer,
		RunListeners:   p.RunListeners,
		StageListeners: p.StageListeners,
	})
}

// Module provides the Driver.
var Module = fx.Options(
	fx.Provide(ProvideDriver),
)
