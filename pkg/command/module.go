package command

import "go.uber.org/fx"

// Module provides the default Executor.
var Module = fx.Options(
	fx.Provide(NewExecutor),
)
