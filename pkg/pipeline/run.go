package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/exception"
	"github.com/littlepadawan/turbospectrum-wrapper/pkg/support/util/logger"
)

// shutdownTimeout bounds the flushing of metrics and closing of the run history.
const shutdownTimeout = 30 * time.Second

// Bootstrapper loads the configuration and assembles a Driver. The returned shutdown
// function releases what Boot acquired and may be nil.
type Bootstrapper interface {
	Boot(ctx context.Context) (*Driver, func(context.Context) error, error)
}

// Run performs a complete run. Configuration loading and every stage share one error
// boundary: a failure is logged once as "Error during <phase>: <message>" and returned.
// On success the total wall-clock time is logged.
func Run(ctx context.Context, log *logger.Logger, boot Bootstrapper) error {
	log = logger.OrDefault(log)
	start := time.Now()

	if err := execute(ctx, log, boot); err != nil {
		log.Errorf("Error during %s: %s", PhaseOf(err), message(err))
		return err
	}

	log.Infof("Total execution time: %.2f seconds", time.Since(start).Seconds())
	return nil
}

func execute(ctx context.Context, log *logger.Logger, boot Bootstrapper) error {
	driver, shutdown, err := boot.Boot(ctx)
	if err != nil {
		return &StageError{
			Stage: StageLoadConfiguration,
			Phase: PhaseSetup,
			Err:   exception.Wrap(err, exception.KindConfiguration, moduleName, "configuration could not be loaded"),
		}
	}

	runErr := driver.Run(ctx)

	if shutdown != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdown(stopCtx); err != nil {
			log.Warnf("Shutdown did not complete cleanly: %v", err)
		}
	}
	return runErr
}

// message renders err on a single line, starting at the first PipelineError in its
// chain so that fx and stage wrappers are left out.
func message(err error) string {
	text := err.Error()
	if pe, ok := exception.As(err); ok {
		text = pe.Error()
	}
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
