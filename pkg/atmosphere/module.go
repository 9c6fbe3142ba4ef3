package atmosphere

import "go.uber.org/fx"

// Module provides the model atmosphere Collector.
var Module = fx.Options(
	fx.Provide(NewCollector),
)
