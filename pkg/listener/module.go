package listener

import (
	"go.uber.org/fx"

	port "github.com/littlepadawan/turbospectrum-wrapper/pkg/port"
)

// Module registers the logging and metrics listeners in the "runListeners" and
// "stageListeners" value groups consumed by the pipeline driver.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewLoggingRunListener, fx.As(new(port.RunListener)), fx.ResultTags(`group:"runListeners"`)),
		fx.Annotate(NewMetricsRunListener, fx.As(new(port.RunListener)), fx.ResultTags(`group:"runListeners"`)),
		fx.Annotate(NewLoggingStageListener, fx.As(new(port.StageListener)), fx.ResultTags(`group:"stageListeners"`)),
		fx.Annotate(NewMetricsStageListener, fx.As(new(port.StageListener)), fx.ResultTags(`group:"stageListeners"`)),
	),
)
