package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Purchase is an order placed against a seller, tracked through its lifecycle.
type Purchase struct {
	bun.BaseModel `bun:"table:purchases"`

	ID        uuid.UUID      `bun:"id,pk,type:uuid"`
	SellerID  uuid.UUID      `bun:"seller_id,type:uuid,notnull"`
	Status    PurchaseStatus `bun:"purchase_status_id,notnull"`
	Version   int64          `bun:"version,notnull,default:1"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero"`
	DeletedAt *time.Time     `bun:"deleted_at,nullzero"`
}

// PurchasePatch carries the fields of a partial purchase update. Nil fields are
// left untouched.
type PurchasePatch struct {
	SellerID *uuid.UUID
	Status   *PurchaseStatus
	// ExpectedVersion guards the write against concurrent modification.
	ExpectedVersion *int64
}

// IsEmpty reports whether the patch changes nothing.
func (p PurchasePatch) IsEmpty() bool {
	return p.SellerID == nil && p.Status == nil
}
