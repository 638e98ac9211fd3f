package rest

import (
	"time"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

type IntentView struct {
	Reference     string    `json:"reference"`
	Status        string    `json:"status"`
	TotalAmount   int64     `json:"total_amount"`
	Currency      string    `json:"currency"`
	ExpiresAt     time.Time `json:"expires_at"`
	LinkedOrderID string    `json:"linked_order_id,omitempty"`
}

func ToIntentView(intent *domain.PendingIntent) IntentView {
	v := IntentView{
		Reference:   intent.PaymentReference,
		Status:      string(intent.Status),
		TotalAmount: intent.Draft.TotalAmount,
		Currency:    "NGN",
		ExpiresAt:   intent.ExpiresAt,
	}
	if intent.LinkedOrderID != nil {
		v.LinkedOrderID = intent.LinkedOrderID.String()
	}
	return v
}

type OrderItemView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice int64           `json:"unit_price"`
	LineTotal int64           `json:"line_total"`
	Addons    []OrderAddonView `json:"addons,omitempty"`
}

type OrderAddonView struct {
	AddonID   string `json:"addon_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderView struct {
	OrderNumber      string          `json:"order_number"`
	OwnerID          string          `json:"owner_id"`
	PaymentReference string          `json:"payment_reference"`
	Subtotal         int64           `json:"subtotal"`
	DiscountAmount   int64           `json:"discount_amount"`
	ShippingAmount   int64           `json:"shipping_amount"`
	TotalAmount      int64           `json:"total_amount"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	RequiresReview   bool            `json:"requires_review"`
	Items            []OrderItemView `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
}

func ToOrderView(order *domain.Order) OrderView {
	v := OrderView{
		OrderNumber:      order.OrderNumber,
		OwnerID:          order.OwnerID,
		PaymentReference: order.PaymentReference,
		Subtotal:         order.Subtotal,
		DiscountAmount:   order.DiscountAmount,
		ShippingAmount:   order.ShippingAmount,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		RequiresReview:   order.RequiresReview,
		CreatedAt:        order.CreatedAt,
	}
	for _, item := range order.Items {
		iv := OrderItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
		for _, addon := range item.Addons {
			iv.Addons = append(iv.Addons, OrderAddonView{
				AddonID:   addon.AddonID,
				Name:      addon.Name,
				Quantity:  addon.Quantity,
				UnitPrice: addon.UnitPrice,
			})
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

type ChargeView struct {
	Outcome        string     `json:"outcome"`
	ChallengeMode  string     `json:"challenge_mode,omitempty"`
	ChallengeToken string     `json:"challenge_token,omitempty"`
	AuthURL        string     `json:"auth_url,omitempty"`
	Message        string     `json:"message,omitempty"`
	Order          *OrderView `json:"order,omitempty"`
}

func ToChargeView(result *services.CheckoutResult) ChargeView {
	v := ChargeView{
		Outcome:        string(result.Charge.Outcome),
		ChallengeMode:  string(result.Charge.ChallengeMode),
		ChallengeToken: result.Charge.ChallengeToken,
		AuthURL:        result.Charge.AuthURL,
		Message:        result.Charge.Message,
	}
	if result.Order != nil {
		ov := ToOrderView(result.Order)
		v.Order = &ov
	}
	return v
}

type RefundView struct {
	Reference        string     `json:"reference"`
	ProviderRefundID string     `json:"provider_refund_id,omitempty"`
	Amount           int64      `json:"amount"`
	Status           string     `json:"status"`
	Reason           string     `json:"reason"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func ToRefundView(refund *domain.Refund) RefundView {
	v := RefundView{
		Reference:   refund.Reference,
		Amount:      refund.Amount,
		Status:      string(refund.Status),
		Reason:      refund.Reason,
		CreatedAt:   refund.CreatedAt,
		CompletedAt: refund.CompletedAt,
	}
	if refund.TransactionID != nil {
		v.ProviderRefundID = *refund.TransactionID
	}
	if refund.FailureReason != nil {
		v.FailureReason = *refund.FailureReason
	}
	return v
}

type ReviewItemView struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Reference     string    `json:"reference,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        int64     `json:"amount"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToReviewItemView(item *application.ReviewItem) ReviewItemView {
	return ReviewItemView{
		ID:            item.ID.String(),
		Kind:          string(item.Kind),
		Reference:     item.Reference,
		TransactionID: item.TransactionID,
		Amount:        item.Amount,
		Detail:        item.Detail,
		CreatedAt:     item.CreatedAt,
	}
}
