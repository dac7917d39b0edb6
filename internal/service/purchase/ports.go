package purchase

import (
	"context"

	"github.com/google/uuid"

	"github.com/Additional-Code/storefront/internal/entity"
)

//go:generate mockgen -source=ports.go -destination=mock/ports.go -package=mock

// Store persists purchases. Implementations return the sentinels of
// repository/purchase.
type Store interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Purchase, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.PurchasePatch) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SellerDirectory answers seller existence queries.
type SellerDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
