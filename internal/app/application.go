// Package app assembles the tswrapper components with uber-fx.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/atmosphere"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/command"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/compilation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/interpolation"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/listener"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/metrics"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/output"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/parameters"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/pipeline"
	repositoryProvider "github.com/littlepadawan/turbospectrum-wrapper/pkg/repository/provider"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/spectra"
	storageProvider "github.com/littlepadawan/turbospectrum-wrapper/pkg/storage/provider"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// Options are the command-line inputs of an application.
type Options struct {
	Source      config.Source
	EnvFilePath string
	// LogLevel overrides system.logging.level when not empty.
	LogLevel string
}

// Application builds the Driver through fx. It implements pipeline.Bootstrapper.
type Application struct {
	opts  Options
	log   *logger.Logger
	extra []fx.Option
}

// New creates an Application. extra options are appended to the graph, e.g. fx.Replace in tests.
func New(opts Options, log *logger.Logger, extra ...fx.Option) *Application {
	return &Application{opts: opts, log: logger.OrDefault(log), extra: extra}
}

// Modules returns every module of the application graph.
func Modules() fx.Option {
	return fx.Options(
		config.Module,
		output.Module,
		atmosphere.Module,
		parameters.Module,
		command.Module,
		compilation.Module,
		interpolation.Module,
		spectra.Module,
		metrics.Module,
		repositoryProvider.Module,
		listener.Module,
		storageProvider.Module,
		pipeline.Module,
	)
}

// Boot loads the configuration, builds the graph and starts it. The returned function
// stops the graph, which flushes metrics and closes the run history.
func (a *Application) Boot(ctx context.Context) (*pipeline.Driver, func(context.Context) error, error) {
	var driver *pipeline.Driver

	app := fx.New(
		fx.Supply(
			a.opts.Source,
			a.log,
			fx.Annotate(a.opts.EnvFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(a.opts.LogLevel, fx.ResultTags(`name:"logLevelOverride"`)),
		),
		fx.WithLogger(func() fxevent.Logger {
			return logger.NewFxLoggerAdapter(a.log)
		}),
		Modules(),
		fx.Options(a.extra...),
		fx.Populate(&driver),
	)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, nil, err
	}
	return driver, app.Stop, nil
}
