package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest is the body of POST /api/v1/Product.
type CreateProductRequest struct {
	Name   string          `json:"name" validate:"required,min=2"`
	Amount *int16          `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Price  decimal.Decimal `json:"price"`
}

// UpdateProductRequest is the body of PUT /api/v1/Product/:productId.
type UpdateProductRequest struct {
	Name   *string          `json:"name,omitempty" validate:"omitempty,min=2"`
	Amount *int16           `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Price  *decimal.Decimal `json:"price,omitempty"`
}

// ProductResponse represents a product as exposed via transport layers.
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Amount    *int16          `json:"amount,omitempty"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
