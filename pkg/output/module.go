package output

import "go.uber.org/fx"

// Module provides the output Manager.
var Module = fx.Options(
	fx.Provide(NewManager),
)
