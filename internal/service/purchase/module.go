package purchase

import (
	"go.uber.org/fx"

	repopurchase "github.com/Additional-Code/storefront/internal/repository/purchase"
	reposeller "github.com/Additional-Code/storefront/internal/repository/seller"
)

// Module provides the purchase service and binds its ports to the repositories.
var Module = fx.Provide(
	func(r *repopurchase.Repository) Store { return r },
	func(r *reposeller.Repository) SellerDirectory { return r },
	NewService,
)
