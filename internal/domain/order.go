package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderDispatched OrderStatus = "dispatched"
	OrderRejected   OrderStatus = "rejected"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderPaymentStatus aggregates the payment/refund position of an order.
type OrderPaymentStatus string

const (
	PaymentUnpaid            OrderPaymentStatus = "unpaid"
	PaymentPaid              OrderPaymentStatus = "paid"
	PaymentRefunded          OrderPaymentStatus = "refunded"
	PaymentPartiallyRefunded OrderPaymentStatus = "partially_refunded"
)

// OrderItemAddon is an addon line nested under an order item.
type OrderItemAddon struct {
	ID        uuid.UUID
	AddonID   string
	Name      string
	Quantity  int
	UnitPrice int64
}

// OrderItem is one product line of a materialized order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
	LineTotal int64
	Addons    []OrderItemAddon
}

// Order is the durable commercial transaction. PaymentReference is unique in
// the store and anchors the at-most-one-order-per-payment guarantee.
type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	OwnerID          string
	PaymentReference string
	Subtotal         int64
	DiscountAmount   int64
	ShippingAmount   int64
	TotalAmount      int64
	Status           OrderStatus
	PaymentStatus    OrderPaymentStatus
	Delivery         DeliveryDetails
	RequiresReview   bool
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOrderNumber generates a globally unique order number independent of any
// external identifier.
func NewOrderNumber() string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%d-%s", time.Now().UTC().Year(), strings.ToUpper(hex.EncodeToString(buf)))
}

// MaterializeOrder builds an Order (with items and addon lines) from a staged
// draft. The order starts pending/paid since materialization only happens on
// confirmed payment evidence.
func MaterializeOrder(reference, ownerID string, draft OrderDraft) *Order {
	now := time.Now().UTC()
	order := &Order{
		ID:               uuid.New(),
		OrderNumber:      NewOrderNumber(),
		OwnerID:          ownerID,
		PaymentReference: reference,
		Subtotal:         draft.Subtotal,
		DiscountAmount:   draft.DiscountAmount,
		ShippingAmount:   draft.ShippingAmount,
		TotalAmount:      draft.TotalAmount,
		Status:           OrderPending,
		PaymentStatus:    PaymentPaid,
		Delivery:         draft.Delivery,
		RequiresReview:   draft.RequiresReview,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for _, di := range draft.Items {
		item := OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: di.ProductID,
			Name:      di.Name,
			Quantity:  di.Quantity,
			UnitPrice: di.UnitPrice,
		}
		lineTotal := di.UnitPrice * int64(di.Quantity)
		for _, da := range di.Addons {
			item.Addons = append(item.Addons, OrderItemAddon{
				ID:        uuid.New(),
				AddonID:   da.AddonID,
				Name:      da.Name,
				Quantity:  da.Quantity,
				UnitPrice: da.UnitPrice,
			})
			lineTotal += da.UnitPrice * int64(da.Quantity)
		}
		item.LineTotal = lineTotal
		order.Items = append(order.Items, item)
	}

	return order
}

// CanTransitionTo validates an admin-driven fulfilment transition.
//
// Valid transitions are:
//   - pending → dispatched, rejected, cancelled
//   - dispatched → completed
//
// rejected, completed and cancelled are terminal.
func (o *Order) CanTransitionTo(target OrderStatus) error {
	switch o.Status {
	case OrderPending:
		if target == OrderDispatched || target == OrderRejected || target == OrderCancelled {
			return nil
		}
	case OrderDispatched:
		if target == OrderCompleted {
			return nil
		}
	}
	return NewTransitionError("order", string(o.Status), string(target))
}

// RecomputePaymentStatus derives the aggregate refund position from the
// original payment amount and the total successfully refunded so far.
func (o *Order) RecomputePaymentStatus(paymentAmount, refundedTotal int64) {
	switch {
	case refundedTotal <= 0:
		// Leave paid/unpaid as-is.
	case refundedTotal >= paymentAmount:
		o.PaymentStatus = PaymentRefunded
	default:
		o.PaymentStatus = PaymentPartiallyRefunded
	}
	o.UpdatedAt = time.Now().UTC()
}
