package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateSellerRequest is the body of POST /api/v1/Seller.
type CreateSellerRequest struct {
	Cpf       string `json:"cpf" validate:"required,cpf"`
	Name      string `json:"name" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Telephone string `json:"telephone" validate:"required,telephone"`
}

// UpdateSellerRequest is the body of PUT /api/v1/Seller/:sellerId.
type UpdateSellerRequest struct {
	Cpf       *string `json:"cpf,omitempty" validate:"omitempty,cpf"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=3"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone *string `json:"telephone,omitempty" validate:"omitempty,telephone"`
}

// SellerResponse represents a seller as exposed via transport layers.
type SellerResponse struct {
	ID        uuid.UUID `json:"id"`
	Cpf       string    `json:"cpf"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Telephone string    `json:"telephone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginRequest is the body of POST /api/v1/Login.
type LoginRequest struct {
	Cpf   string `json:"cpf" validate:"required,cpf"`
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
