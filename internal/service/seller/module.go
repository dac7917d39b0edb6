package seller

import "go.uber.org/fx"

// Module provides the seller service to Fx.
var Module = fx.Provide(NewService)
