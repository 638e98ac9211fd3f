// Package domain defines the entities and state machines for orders,
// payments, refunds and the pending-intent staging records.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// IntentStatus represents the lifecycle state of a pending intent.
type IntentStatus string

const (
	IntentPendingPayment  IntentStatus = "pending_payment"
	IntentPaymentVerified IntentStatus = "payment_verified"
	IntentOrderCreated    IntentStatus = "order_created"
	IntentExpired         IntentStatus = "expired"
	IntentFailed          IntentStatus = "failed"
)

// DraftAddon is an addon line nested under a draft item.
type DraftAddon struct {
	AddonID   string `json:"addon_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// DraftItem is one product line of a staged order.
type DraftItem struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice int64        `json:"unit_price"`
	Addons    []DraftAddon `json:"addons,omitempty"`
}

// DeliveryDetails carries how and where the order should be delivered.
type DeliveryDetails struct {
	Method  string `json:"method"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// OrderDraft is the full staged order, serialized as JSONB on the intent row.
type OrderDraft struct {
	Items          []DraftItem     `json:"items"`
	Delivery       DeliveryDetails `json:"delivery"`
	Subtotal       int64           `json:"subtotal"`
	DiscountAmount int64           `json:"discount_amount"`
	ShippingAmount int64           `json:"shipping_amount"`
	TotalAmount    int64           `json:"total_amount"`
	CustomerEmail  string          `json:"customer_email,omitempty"`
	RequiresReview bool            `json:"requires_review,omitempty"`
}

// PendingIntent stages an order draft before its payment is confirmed.
// Transitions are forward-only; a terminal intent never re-opens.
type PendingIntent struct {
	ID               uuid.UUID
	PaymentReference string
	OwnerID          string
	Draft            OrderDraft
	Status           IntentStatus
	FailureReason    *string
	LinkedOrderID    *uuid.UUID
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// NewPendingIntent stages a draft under a fresh reference with the given TTL.
func NewPendingIntent(reference, ownerID string, draft OrderDraft, ttl time.Duration) (*PendingIntent, error) {
	if len(draft.Items) == 0 {
		return nil, ErrEmptyDraft
	}
	if draft.TotalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &PendingIntent{
		ID:               uuid.New(),
		PaymentReference: reference,
		OwnerID:          ownerID,
		Draft:            draft,
		Status:           IntentPendingPayment,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}, nil
}

// IsTerminal reports whether the intent can never change state again.
func (i *PendingIntent) IsTerminal() bool {
	switch i.Status {
	case IntentOrderCreated, IntentExpired, IntentFailed:
		return true
	default:
		return false
	}
}

// Expired reports whether the intent's TTL has elapsed at the given instant.
func (i *PendingIntent) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// MarkVerified records that payment evidence arrived for this intent.
// Calling on a terminal intent is a no-op.
func (i *PendingIntent) MarkVerified() error {
	if i.IsTerminal() || i.Status == IntentPaymentVerified {
		return nil
	}
	i.Status = IntentPaymentVerified
	return nil
}

// MarkMaterialized retires the intent, linking the order it produced.
// Calling on a terminal intent is a no-op.
func (i *PendingIntent) MarkMaterialized(orderID uuid.UUID) error {
	if i.IsTerminal() {
		return nil
	}
	i.Status = IntentOrderCreated
	i.LinkedOrderID = &orderID
	return nil
}

// MarkExpired retires the intent after its TTL elapsed.
// Calling on a terminal intent is a no-op.
func (i *PendingIntent) MarkExpired() error {
	if i.IsTerminal() {
		return nil
	}
	i.Status = IntentExpired
	return nil
}

// MarkFailed retires the intent after a declined or abandoned charge.
// Calling on a terminal intent is a no-op.
func (i *PendingIntent) MarkFailed(reason string) error {
	if i.IsTerminal() {
		return nil
	}
	i.Status = IntentFailed
	i.FailureReason = &reason
	return nil
}
