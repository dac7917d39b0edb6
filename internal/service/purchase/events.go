package purchase

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on the purchase topic.
const (
	EventCreated       = "purchase.created"
	EventStatusChanged = "purchase.status_changed"
	EventDeleted       = "purchase.deleted"
)

// Event is the payload of every purchase message.
type Event struct {
	Type           string    `json:"type"`
	PurchaseID     uuid.UUID `json:"purchaseId"`
	SellerID       uuid.UUID `json:"sellerId"`
	Status         int       `json:"purchaseStatusId,omitempty"`
	PreviousStatus int       `json:"previousPurchaseStatusId,omitempty"`
	Version        int64     `json:"version,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}
