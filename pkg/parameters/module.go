package parameters

import "go.uber.org/fx"

// Module provides the parameter Generator.
var Module = fx.Options(
	fx.Provide(NewGenerator),
)
