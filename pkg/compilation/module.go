package compilation

import "go.uber.org/fx"

// Module provides the Compiler.
var Module = fx.Options(
	fx.Provide(NewCompiler),
)
