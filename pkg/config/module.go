package config

import (
	"go.uber.org/fx"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	Source           Source
	Logger           *logger.Logger
	EnvFilePath      string `name:"envFilePath" optional:"true"`
	LogLevelOverride string `name:"logLevelOverride" optional:"true"`
}

// NewConfigProvider loads *Config and applies its logging level to the injected logger,
// unless a level override was supplied (command-line flag).
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := Load(params.Source, Options{
		EnvFilePath: params.EnvFilePath,
		Logger:      params.Logger,
	})
	if err != nil {
		return nil, err
	}

	level := cfg.System.Logging.Level
	if params.LogLevelOverride != "" {
		level = params.LogLevelOverride
	}
	log := logger.OrDefault(params.Logger)
	log.SetLevel(level)
	log.Debugf("Log level set to: %s", level)

	return cfg, nil
}

// Module provides *Config to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
)
