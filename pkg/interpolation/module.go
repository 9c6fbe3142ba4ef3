package interpolation

import "go.uber.org/fx"

// Module provides the template Writer.
var Module = fx.Options(
	fx.Provide(NewWriter),
)
