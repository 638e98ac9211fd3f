package services

import (
	"context"
	"errors"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

// QueryService serves read-only lookups for the REST layer.
type QueryService struct {
	store application.Store
}

func NewQueryService(store application.Store) *QueryService {
	return &QueryService{store: store}
}

func (s *QueryService) GetIntent(ctx context.Context, reference string) (*domain.PendingIntent, error) {
	intent, err := s.store.Intents().FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, postgres.ErrIntentNotFound) {
			return nil, application.NewNotFoundError("no checkout session for this reference")
		}
		return nil, application.NewInternalError(err)
	}
	return intent, nil
}

func (s *QueryService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.store.Orders().FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, postgres.ErrOrderNotFound) {
			return nil, application.NewNotFoundError("order not found")
		}
		return nil, application.NewInternalError(err)
	}
	return order, nil
}

// GetRefunds lists every refund recorded against an order's payment together
// with the remaining refundable balance.
func (s *QueryService) GetRefunds(ctx context.Context, orderNumber string) ([]*domain.Refund, int64, error) {
	order, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, 0, err
	}

	payment, err := s.store.Payments().FindByReference(ctx, order.PaymentReference)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return nil, 0, application.NewNotFoundError("no payment recorded for this order")
		}
		return nil, 0, application.NewInternalError(err)
	}

	refunds, err := s.store.Refunds().FindByPayment(ctx, payment.ID)
	if err != nil {
		return nil, 0, application.NewInternalError(err)
	}

	// The advertised balance accounts for pending and processing refunds so
	// it always matches what a new request would be validated against.
	reservedTotal, err := s.store.Refunds().SumReservedByPayment(ctx, payment.ID)
	if err != nil {
		return nil, 0, application.NewInternalError(err)
	}

	return refunds, payment.RefundableAmount(reservedTotal), nil
}

func (s *QueryService) ListReviewQueue(ctx context.Context, limit, offset int) ([]*application.ReviewItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.store.ReviewQueue().ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return items, nil
}
