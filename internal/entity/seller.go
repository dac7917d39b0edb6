package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Seller owns purchases and authenticates with cpf + email.
type Seller struct {
	bun.BaseModel `bun:"table:sellers"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	Cpf       string     `bun:"cpf,notnull"`
	Name      string     `bun:"name,notnull"`
	Email     string     `bun:"email,notnull"`
	Telephone string     `bun:"telephone,notnull"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero"`
	DeletedAt *time.Time `bun:"deleted_at,nullzero"`
}

// SellerPatch holds optional seller fields for partial updates.
type SellerPatch struct {
	Cpf       *string
	Name      *string
	Email     *string
	Telephone *string
}

// IsEmpty reports whether the patch changes nothing.
func (p SellerPatch) IsEmpty() bool {
	return p.Cpf == nil && p.Name == nil && p.Email == nil && p.Telephone == nil
}
