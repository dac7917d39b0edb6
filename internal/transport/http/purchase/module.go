package purchase

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/storefront/internal/auth"
)

// Module wires HTTP purchase handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, tokens *auth.TokenService) {
		Register(e, h, tokens)
	}),
)
