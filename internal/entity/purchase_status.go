package entity

import (
	"errors"
	"fmt"
)

// PurchaseStatus is the lifecycle state of a purchase. The numeric values are
// part of the public wire contract and must never be renumbered.
type PurchaseStatus int16

const (
	PurchaseStatusWaitingPayment  PurchaseStatus = 1
	PurchaseStatusPaymentApproved PurchaseStatus = 2
	PurchaseStatusShipping        PurchaseStatus = 3
	PurchaseStatusDelivered       PurchaseStatus = 4
	PurchaseStatusRejected        PurchaseStatus = 5
	PurchaseStatusCancelled       PurchaseStatus = 6
)

var (
	// ErrInvalidStatus is returned for values outside the status enumeration.
	ErrInvalidStatus = errors.New("invalid purchase status")
	// ErrInvalidPurchaseOrder is returned when a transition skips or reverses the lifecycle.
	ErrInvalidPurchaseOrder = errors.New("invalid purchase situation order")
)

var purchaseStatusNames = map[PurchaseStatus]string{
	PurchaseStatusWaitingPayment:  "WaitingPayment",
	PurchaseStatusPaymentApproved: "PaymentApproved",
	PurchaseStatusShipping:        "Shipping",
	PurchaseStatusDelivered:       "Delivered",
	PurchaseStatusRejected:        "Rejected",
	PurchaseStatusCancelled:       "Cancelled",
}

// purchaseTransitions lists the statuses reachable from each state. States
// absent from the table or mapped to nothing are terminal.
var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchaseStatusWaitingPayment:  {PurchaseStatusPaymentApproved, PurchaseStatusCancelled},
	PurchaseStatusPaymentApproved: {PurchaseStatusShipping, PurchaseStatusCancelled},
	PurchaseStatusShipping:        {PurchaseStatusDelivered},
	PurchaseStatusDelivered:       nil,
	PurchaseStatusRejected:        nil,
	PurchaseStatusCancelled:       nil,
}

// PurchaseStatuses returns every status in wire order.
func PurchaseStatuses() []PurchaseStatus {
	return []PurchaseStatus{
		PurchaseStatusWaitingPayment,
		PurchaseStatusPaymentApproved,
		PurchaseStatusShipping,
		PurchaseStatusDelivered,
		PurchaseStatusRejected,
		PurchaseStatusCancelled,
	}
}

// ParsePurchaseStatus converts a wire value into a PurchaseStatus.
func ParsePurchaseStatus(value int) (PurchaseStatus, error) {
	status := PurchaseStatus(value)
	if int(status) != value || !status.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStatus, value)
	}
	return status, nil
}

// IsValid reports whether s belongs to the enumeration.
func (s PurchaseStatus) IsValid() bool {
	_, ok := purchaseStatusNames[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s PurchaseStatus) IsTerminal() bool {
	return s.IsValid() && len(purchaseTransitions[s]) == 0
}

// AllowedNext returns the statuses s may move to.
func (s PurchaseStatus) AllowedNext() []PurchaseStatus {
	next := purchaseTransitions[s]
	out := make([]PurchaseStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether next is in the transition table for s.
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range purchaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PurchaseStatus) String() string {
	if name, ok := purchaseStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PurchaseStatus(%d)", int16(s))
}

// ValidateTransition checks a requested status change against the lifecycle.
func ValidateTransition(current, requested PurchaseStatus) error {
	if !requested.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, int16(requested))
	}
	if !current.CanTransitionTo(requested) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPurchaseOrder, current, requested)
	}
	return nil
}

// ValidateUpdate checks an update against the lifecycle. A nil requested
// status keeps the current one, which only a terminal purchase may do.
func ValidateUpdate(current PurchaseStatus, requested *PurchaseStatus) error {
	if requested != nil {
		return ValidateTransition(current, *requested)
	}
	if !current.IsTerminal() {
		return fmt.Errorf("%w: %s must move to one of %v", ErrInvalidPurchaseOrder, current, current.AllowedNext())
	}
	return nil
}
