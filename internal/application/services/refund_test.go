package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services/testhelpers"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

type refundFixture struct {
	store   *testhelpers.MemoryStore
	gateway *testhelpers.MockGatewayClient
	svc     *services.RefundService
	order   *domain.Order
	payment *domain.Payment
}

func newRefundFixture(t *testing.T) *refundFixture {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	gateway := &testhelpers.MockGatewayClient{}
	svc := services.NewRefundService(store, gateway, discardLogger())

	order := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	payment := domain.NewSuccessfulPayment(order.ID, order.PaymentReference, "tx-100", 6200, "NGN", json.RawMessage(`{}`))
	store.SeedOrder(order)
	store.SeedPayment(payment)

	return &refundFixture{store: store, gateway: gateway, svc: svc, order: order, payment: payment}
}

func TestRequestRefund(t *testing.T) {
	t.Run("creates pending refund", func(t *testing.T) {
		f := newRefundFixture(t)

		refund, err := f.svc.Request(context.Background(), services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber,
			Amount:      2000,
			Reason:      "cold food",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RefundPending, refund.Status)
		assert.Equal(t, int64(2000), refund.Amount)
	})

	t.Run("rejects amount above refundable balance", func(t *testing.T) {
		f := newRefundFixture(t)

		_, err := f.svc.Request(context.Background(), services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber,
			Amount:      7000,
			Reason:      "too much",
		})

		require.Error(t, err)
		assert.Equal(t, application.ErrCodeExceedsRefundable, application.ToErrorCode(err))
	})

	t.Run("overlapping requests reserve the balance", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		first, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 4000, Reason: "first",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RefundPending, first.Status)

		// The first refund has not completed, but its amount is already
		// claimed.
		_, err = f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 4000, Reason: "second",
		})
		require.Error(t, err)
		assert.Equal(t, application.ErrCodeExceedsRefundable, application.ToErrorCode(err))

		// Cancelling releases the claim.
		_, err = f.svc.Cancel(ctx, first.Reference, "retracted")
		require.NoError(t, err)

		again, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 4000, Reason: "retry",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4000), again.Amount)
	})

	t.Run("successive refunds never exceed the payment", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		first, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 4000, Reason: "partial",
		})
		require.NoError(t, err)
		require.NoError(t, first.BeginProcessing())
		require.NoError(t, first.Complete("rf-1"))
		require.NoError(t, f.store.Refunds().Update(ctx, first))

		_, err = f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 2201, Reason: "rest plus one",
		})
		require.Error(t, err)
		assert.Equal(t, application.ErrCodeExceedsRefundable, application.ToErrorCode(err))

		rest, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 2200, Reason: "rest",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2200), rest.Amount)
	})
}

func TestExecuteRefund(t *testing.T) {
	t.Run("synchronous completion cascades to payment and order", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		refund, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 6200, Reason: "full refund",
		})
		require.NoError(t, err)

		f.gateway.RefundFn = func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
			assert.Equal(t, "tx-100", transactionID)
			assert.Equal(t, int64(6200), amount)
			return &application.RefundCallResult{Completed: true, ProviderRefundID: "rf-77", Amount: amount}, nil
		}

		executed, err := f.svc.Execute(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, executed.Status)

		payment, err := f.store.Payments().FindByID(ctx, f.payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStateRefunded, payment.Status)

		order, err := f.store.Orders().FindByReference(ctx, "SKB-REF-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRefunded, order.PaymentStatus)
	})

	t.Run("partial refund marks order partially refunded", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		refund, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 2000, Reason: "one item",
		})
		require.NoError(t, err)

		f.gateway.RefundFn = func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
			return &application.RefundCallResult{Completed: true, ProviderRefundID: "rf-1", Amount: amount}, nil
		}

		_, err = f.svc.Execute(ctx, refund.Reference)
		require.NoError(t, err)

		payment, err := f.store.Payments().FindByID(ctx, f.payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStateSuccessful, payment.Status)

		order, err := f.store.Orders().FindByReference(ctx, "SKB-REF-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPartiallyRefunded, order.PaymentStatus)
	})

	t.Run("provider failure marks refund failed without cascade", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		refund, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 2000, Reason: "attempt",
		})
		require.NoError(t, err)

		f.gateway.RefundFn = func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
			return &application.RefundCallResult{Failed: true, Message: "refund rejected"}, nil
		}

		executed, err := f.svc.Execute(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundFailed, executed.Status)

		order, err := f.store.Orders().FindByReference(ctx, "SKB-REF-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	})

	t.Run("pending provider response leaves refund processing", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		refund, err := f.svc.Request(ctx, services.RequestRefundCommand{
			OrderNumber: f.order.OrderNumber, Amount: 2000, Reason: "async",
		})
		require.NoError(t, err)

		f.gateway.RefundFn = func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
			return &application.RefundCallResult{ProviderRefundID: "rf-9"}, nil
		}

		executed, err := f.svc.Execute(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundProcessing, executed.Status)
		require.NotNil(t, executed.TransactionID)
		assert.Equal(t, "rf-9", *executed.TransactionID)
	})
}

func TestCancelRefund(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()

	refund, err := f.svc.Request(ctx, services.RequestRefundCommand{
		OrderNumber: f.order.OrderNumber, Amount: 2000, Reason: "will cancel",
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, refund.Reference, "user retracted")
	require.NoError(t, err)
	assert.Equal(t, domain.RefundCancelled, cancelled.Status)

	// Cancelling after processing is invalid.
	other, err := f.svc.Request(ctx, services.RequestRefundCommand{
		OrderNumber: f.order.OrderNumber, Amount: 1000, Reason: "processing",
	})
	require.NoError(t, err)
	require.NoError(t, other.BeginProcessing())
	require.NoError(t, f.store.Refunds().Update(ctx, other))

	_, err = f.svc.Cancel(ctx, other.Reference, "too late")
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeInvalidState, application.ToErrorCode(err))
}

func seedProcessingRefund(t *testing.T, f *refundFixture, amount int64, providerRefundID string) *domain.Refund {
	t.Helper()
	refund, err := domain.NewRefund(f.payment, 0, amount, "webhook test")
	require.NoError(t, err)
	require.NoError(t, refund.BeginProcessing())
	if providerRefundID != "" {
		refund.TransactionID = &providerRefundID
	}
	f.store.SeedRefund(refund)
	return refund
}

func TestApplyRefundEvent(t *testing.T) {
	t.Run("matches by provider refund id", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 2000, "rf-55")

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			ProviderRefundID: "rf-55",
			Successful:       true,
		})

		require.NoError(t, err)
		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, got.Status)
	})

	t.Run("falls back to transaction id", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 2000, "")

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			TransactionID: "tx-100",
			Amount:        2000,
			Successful:    true,
		})

		require.NoError(t, err)
		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, got.Status)
	})

	t.Run("falls back to amount and recency", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 1750, "")

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			Amount:     1750,
			Successful: true,
		})

		require.NoError(t, err)
		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, got.Status)
	})

	t.Run("ambiguous amount match is queued not guessed", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		first := seedProcessingRefund(t, f, 2000, "")
		second := seedProcessingRefund(t, f, 2000, "")

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			Amount:     2000,
			Successful: true,
		})

		require.NoError(t, err)
		for _, r := range []*domain.Refund{first, second} {
			got, err := f.store.Refunds().FindByReference(ctx, r.Reference)
			require.NoError(t, err)
			assert.Equal(t, domain.RefundProcessing, got.Status)
		}
		reviews := f.store.Reviews()
		require.Len(t, reviews, 1)
		assert.Equal(t, application.ReviewUnmatchedRefund, reviews[0].Kind)
	})

	t.Run("unmatched event is queued", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			ProviderRefundID: "rf-unknown",
			Amount:           123,
			Successful:       true,
		})

		require.NoError(t, err)
		reviews := f.store.Reviews()
		require.Len(t, reviews, 1)
		assert.Equal(t, application.ReviewUnmatchedRefund, reviews[0].Kind)
	})

	t.Run("duplicate delivery converges", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 2000, "rf-55")

		event := services.RefundEvent{ProviderRefundID: "rf-55", Successful: true}
		require.NoError(t, f.svc.ApplyEvent(ctx, event))
		require.NoError(t, f.svc.ApplyEvent(ctx, event))

		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, got.Status)

		total, err := f.store.Refunds().SumSuccessfulByPayment(ctx, f.payment.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), total)
	})

	t.Run("completion never pushes refunds past the payment", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		first := seedProcessingRefund(t, f, 4000, "rf-a")
		second := seedProcessingRefund(t, f, 4000, "rf-b")

		require.NoError(t, f.svc.ApplyEvent(ctx, services.RefundEvent{
			ProviderRefundID: "rf-a",
			Successful:       true,
		}))

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			ProviderRefundID: "rf-b",
			Successful:       true,
		})
		require.Error(t, err)
		assert.Equal(t, application.ErrCodeExceedsRefundable, application.ToErrorCode(err))

		got, err := f.store.Refunds().FindByReference(ctx, first.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundSuccessful, got.Status)

		got, err = f.store.Refunds().FindByReference(ctx, second.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundFailed, got.Status)

		total, err := f.store.Refunds().SumSuccessfulByPayment(ctx, f.payment.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), total)
	})

	t.Run("failed event marks refund failed", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 2000, "rf-55")

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			ProviderRefundID: "rf-55",
			Successful:       false,
			Message:          "insufficient settlement balance",
		})

		require.NoError(t, err)
		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundFailed, got.Status)
	})

	t.Run("stale amount candidates outside the window are ignored", func(t *testing.T) {
		f := newRefundFixture(t)
		ctx := context.Background()
		refund := seedProcessingRefund(t, f, 2000, "")
		refund.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
		f.store.SeedRefund(refund)

		err := f.svc.ApplyEvent(ctx, services.RefundEvent{
			Amount:     2000,
			Successful: true,
		})

		require.NoError(t, err)
		got, err := f.store.Refunds().FindByReference(ctx, refund.Reference)
		require.NoError(t, err)
		assert.Equal(t, domain.RefundProcessing, got.Status)

		reviews := f.store.Reviews()
		require.Len(t, reviews, 1)
	})
}
