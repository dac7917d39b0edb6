package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product is a catalog item. Names are unique among active products.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID        uuid.UUID       `bun:"id,pk,type:uuid"`
	Name      string          `bun:"name,notnull"`
	Amount    *int16          `bun:"amount"`
	Price     decimal.Decimal `bun:"price,type:numeric(12,2),notnull"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero"`
	DeletedAt *time.Time      `bun:"deleted_at,nullzero"`
}

// ProductPatch holds optional product fields for partial updates.
type ProductPatch struct {
	Name   *string
	Amount *int16
	Price  *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.Price == nil
}
