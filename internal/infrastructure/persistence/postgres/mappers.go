package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

func intentToDomain(m IntentModel) (*domain.PendingIntent, error) {
	var draft domain.OrderDraft
	if err := json.Unmarshal(m.OrderDraft, &draft); err != nil {
		return nil, fmt.Errorf("decode order draft: %w", err)
	}

	intent := &domain.PendingIntent{
		ID:               m.ID,
		PaymentReference: m.PaymentReference,
		Draft:            draft,
		Status:           domain.IntentStatus(m.Status),
		FailureReason:    m.FailureReason,
		LinkedOrderID:    m.LinkedOrderID,
		CreatedAt:        m.CreatedAt,
		ExpiresAt:        m.ExpiresAt,
	}
	if m.OwnerID != nil {
		intent.OwnerID = *m.OwnerID
	}
	return intent, nil
}

func intentToModel(i *domain.PendingIntent) (*IntentModel, error) {
	draft, err := json.Marshal(i.Draft)
	if err != nil {
		return nil, fmt.Errorf("encode order draft: %w", err)
	}

	m := &IntentModel{
		ID:               i.ID,
		PaymentReference: i.PaymentReference,
		OrderDraft:       draft,
		Status:           string(i.Status),
		FailureReason:    i.FailureReason,
		LinkedOrderID:    i.LinkedOrderID,
		CreatedAt:        i.CreatedAt,
		ExpiresAt:        i.ExpiresAt,
	}
	if i.OwnerID != "" {
		m.OwnerID = &i.OwnerID
	}
	return m, nil
}

func orderToDomain(m OrderModel) *domain.Order {
	order := &domain.Order{
		ID:               m.ID,
		OrderNumber:      m.OrderNumber,
		OwnerID:          m.OwnerID,
		PaymentReference: m.PaymentReference,
		Subtotal:         m.Subtotal,
		DiscountAmount:   m.DiscountAmount,
		ShippingAmount:   m.ShippingAmount,
		TotalAmount:      m.TotalAmount,
		Status:           domain.OrderStatus(m.Status),
		PaymentStatus:    domain.OrderPaymentStatus(m.PaymentStatus),
		RequiresReview:   m.RequiresReview,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.DeliveryMethod != nil {
		order.Delivery.Method = *m.DeliveryMethod
	}
	if m.DeliveryAddress != nil {
		order.Delivery.Address = *m.DeliveryAddress
	}
	if m.DeliveryPhone != nil {
		order.Delivery.Phone = *m.DeliveryPhone
	}
	return order
}

func orderToModel(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		OwnerID:          o.OwnerID,
		PaymentReference: o.PaymentReference,
		Subtotal:         o.Subtotal,
		DiscountAmount:   o.DiscountAmount,
		ShippingAmount:   o.ShippingAmount,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		RequiresReview:   o.RequiresReview,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.Delivery.Method != "" {
		m.DeliveryMethod = &o.Delivery.Method
	}
	if o.Delivery.Address != "" {
		m.DeliveryAddress = &o.Delivery.Address
	}
	if o.Delivery.Phone != "" {
		m.DeliveryPhone = &o.Delivery.Phone
	}
	return m
}

func paymentToDomain(m PaymentModel) *domain.Payment {
	p := &domain.Payment{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Reference:   m.Reference,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Status:      domain.PaymentState(m.Status),
		GatewayData: m.GatewayData,
		PaidAt:      m.PaidAt,
		FailedAt:    m.FailedAt,
		CreatedAt:   m.CreatedAt,
	}
	if m.TransactionID != nil {
		p.TransactionID = *m.TransactionID
	}
	return p
}

func paymentToModel(p *domain.Payment) *PaymentModel {
	m := &PaymentModel{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Reference:   p.Reference,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      string(p.Status),
		GatewayData: p.GatewayData,
		PaidAt:      p.PaidAt,
		FailedAt:    p.FailedAt,
		CreatedAt:   p.CreatedAt,
	}
	if p.TransactionID != "" {
		m.TransactionID = &p.TransactionID
	}
	return m
}

func refundToDomain(m RefundModel) *domain.Refund {
	r := &domain.Refund{
		ID:            m.ID,
		PaymentID:     m.PaymentID,
		Reference:     m.Reference,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		Status:        domain.RefundStatus(m.Status),
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   m.CompletedAt,
	}
	if m.Reason != nil {
		r.Reason = *m.Reason
	}
	return r
}

func refundToModel(r *domain.Refund) *RefundModel {
	m := &RefundModel{
		ID:            r.ID,
		PaymentID:     r.PaymentID,
		Reference:     r.Reference,
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		Status:        string(r.Status),
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		CompletedAt:   r.CompletedAt,
	}
	if r.Reason != "" {
		m.Reason = &r.Reason
	}
	return m
}
