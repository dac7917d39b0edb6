package http

import (
	"go.uber.org/fx"

	producttransport "github.com/Additional-Code/storefront/internal/transport/http/product"
	purchasetransport "github.com/Additional-Code/storefront/internal/transport/http/purchase"
	sellertransport "github.com/Additional-Code/storefront/internal/transport/http/seller"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	purchasetransport.Module,
	sellertransport.Module,
	producttransport.Module,
)
