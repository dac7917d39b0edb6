package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreatePurchaseRequest is the body of POST /api/v1/Purchase.
type CreatePurchaseRequest struct {
	SellerID         uuid.UUID `json:"sellerId"`
	PurchaseStatusID *int      `json:"purchaseStatusId,omitempty"`
}

// UpdatePurchaseRequest is the body of PUT /api/v1/Purchase/:purchaseId.
type UpdatePurchaseRequest struct {
	SellerID         *uuid.UUID `json:"sellerId,omitempty"`
	PurchaseStatusID *int       `json:"purchaseStatusId,omitempty"`
}

// PurchaseResponse represents a purchase as exposed via transport layers.
type PurchaseResponse struct {
	ID               uuid.UUID `json:"id"`
	SellerID         uuid.UUID `json:"sellerId"`
	PurchaseStatusID int       `json:"purchaseStatusId"`
	PurchaseStatus   string    `json:"purchaseStatus"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
