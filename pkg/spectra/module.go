package spectra

import "go.uber.org/fx"

// Module provides the spectra Generator.
var Module = fx.Options(
	fx.Provide(NewGenerator),
)
