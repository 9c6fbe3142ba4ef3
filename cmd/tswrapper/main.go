// Command tswrapper generates synthetic stellar spectra with Turbospectrum.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/littlepadawan/turbospectrum-wrapper/internal/app"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/config"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/pipeline"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		envFilePath string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "tswrapper",
		Short: "Generate synthetic stellar spectra with Turbospectrum",
		Long: `tswrapper compiles Turbospectrum and the model atmosphere interpolator,
draws stellar parameter sets and synthesizes one spectrum per set.

The configuration file is taken from --config, then $` + config.EnvConfigPath + `,
then ` + config.DefaultConfigPath + `.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Init(os.Stderr, logLevel)
			if envFilePath == "" {
				envFilePath = os.Getenv("ENV_FILE_PATH")
			}

			a := app.New(app.Options{
				Source:      config.Resolve(configPath),
				EnvFilePath: envFilePath,
				LogLevel:    logLevel,
			}, log)
			return pipeline.Run(cmd.Context(), log, a)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	cmd.Flags().StringVar(&envFilePath, "env-file", "", "path to a .env file (default \".env\", or $ENV_FILE_PATH)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override system.logging.level (DEBUG, INFO, WARN, ERROR)")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Run failures have already been logged by pipeline.Run.
		var se *pipeline.StageError
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
