package postgres

import (
	"time"

	"github.com/google/uuid"
)

type IntentModel struct {
	ID               uuid.UUID
	PaymentReference string
	OwnerID          *string
	OrderDraft       []byte
	Status           string
	FailureReason    *string
	LinkedOrderID    *uuid.UUID
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

type OrderModel struct {
	ID               uuid.UUID
	OrderNumber      string
	OwnerID          string
	PaymentReference string
	Subtotal         int64
	DiscountAmount   int64
	ShippingAmount   int64
	TotalAmount      int64
	Status           string
	PaymentStatus    string
	DeliveryMethod   *string
	DeliveryAddress  *string
	DeliveryPhone    *string
	RequiresReview   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderItemModel struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
	LineTotal int64
}

type OrderItemAddonModel struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	AddonID     string
	Name        string
	Quantity    int
	UnitPrice   int64
}

type PaymentModel struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	TransactionID *string
	Reference     string
	Amount        int64
	Currency      string
	Status        string
	GatewayData   []byte
	PaidAt        *time.Time
	FailedAt      *time.Time
	CreatedAt     time.Time
}

type RefundModel struct {
	ID            uuid.UUID
	PaymentID     uuid.UUID
	Reference     string
	TransactionID *string
	Amount        int64
	Status        string
	Reason        *string
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}
