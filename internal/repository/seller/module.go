package seller

import "go.uber.org/fx"

// Module provides the seller repository to Fx.
var Module = fx.Provide(NewRepository)
