package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services/testhelpers"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

const testWebhookSecret = "whsec-test"

func newWebhookFixture() (*testhelpers.MemoryStore, *services.WebhookService) {
	store := testhelpers.NewMemoryStore()
	identity := &testhelpers.MockIdentityClient{
		UsersByEmail: map[string]*application.User{
			"ada@example.com": {ID: "user-1", Email: "ada@example.com", Name: "Ada"},
		},
	}
	cart := &testhelpers.MockCartClient{}
	gatewayClient := &testhelpers.MockGatewayClient{}

	reconciler := services.NewReconcileService(store, identity, cart, discardLogger())
	refunds := services.NewRefundService(store, gatewayClient, discardLogger())
	webhooks := services.NewWebhookService(testWebhookSecret, reconciler, refunds, discardLogger())
	return store, webhooks
}

func TestVerifySignature(t *testing.T) {
	_, svc := newWebhookFixture()

	assert.True(t, svc.VerifySignature(testWebhookSecret))
	assert.False(t, svc.VerifySignature("wrong"))
	assert.False(t, svc.VerifySignature(""))
}

func TestHandleCallback_RejectsBadSignature(t *testing.T) {
	_, svc := newWebhookFixture()

	err := svc.HandleCallback(context.Background(), "forged", []byte(`{"event":"charge.completed"}`))

	require.Error(t, err)
	assert.Equal(t, application.ErrCodeSignatureInvalid, application.ToErrorCode(err))
}

func TestHandleCallback_ChargeEventMaterializesOrder(t *testing.T) {
	ctx := context.Background()
	store, svc := newWebhookFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	body := []byte(`{
		"event": "charge.completed",
		"data": {
			"id": 100,
			"tx_ref": "SKB-REF-1",
			"status": "successful",
			"amount": 6200,
			"currency": "NGN",
			"customer": {"email": "ada@example.com"}
		}
	}`)

	err := svc.HandleCallback(ctx, testWebhookSecret, body)

	require.NoError(t, err)
	order, err := store.Orders().FindByReference(ctx, "SKB-REF-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.False(t, order.RequiresReview)
}

func TestHandleCallback_ChargeEventNonSuccessfulIgnored(t *testing.T) {
	ctx := context.Background()
	store, svc := newWebhookFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	body := []byte(`{
		"event": "charge.completed",
		"data": {"tx_ref": "SKB-REF-1", "status": "failed", "amount": 6200}
	}`)

	err := svc.HandleCallback(ctx, testWebhookSecret, body)

	require.NoError(t, err)
	assert.Equal(t, 0, store.OrderCount())
}

func TestHandleCallback_DuplicateChargeDeliveryConverges(t *testing.T) {
	ctx := context.Background()
	store, svc := newWebhookFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	body := []byte(`{
		"event": "charge.completed",
		"data": {"id": 100, "tx_ref": "SKB-REF-1", "status": "successful", "amount": 6200, "currency": "NGN"}
	}`)

	require.NoError(t, svc.HandleCallback(ctx, testWebhookSecret, body))
	require.NoError(t, svc.HandleCallback(ctx, testWebhookSecret, body))

	assert.Equal(t, 1, store.OrderCount())
}

func TestHandleCallback_RefundEventCompletesRefund(t *testing.T) {
	ctx := context.Background()
	store, svc := newWebhookFixture()

	order := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	payment := domain.NewSuccessfulPayment(order.ID, order.PaymentReference, "tx-100", 6200, "NGN", json.RawMessage(`{}`))
	store.SeedOrder(order)
	store.SeedPayment(payment)

	refund, err := domain.NewRefund(payment, 0, 6200, "webhook test")
	require.NoError(t, err)
	require.NoError(t, refund.BeginProcessing())
	providerID := "990"
	refund.TransactionID = &providerID
	store.SeedRefund(refund)

	body := []byte(`{
		"event": "transfer.refund.completed",
		"data": {"id": 990, "status": "completed", "amount_refunded": 6200, "tx": {"id": 100}}
	}`)

	err = svc.HandleCallback(ctx, testWebhookSecret, body)

	require.NoError(t, err)
	got, err := store.Refunds().FindByReference(ctx, refund.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundSuccessful, got.Status)

	updated, err := store.Orders().FindByReference(ctx, "SKB-REF-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, updated.PaymentStatus)
}

func TestHandleCallback_RefundFailedEvent(t *testing.T) {
	ctx := context.Background()
	store, svc := newWebhookFixture()

	order := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	payment := domain.NewSuccessfulPayment(order.ID, order.PaymentReference, "tx-100", 6200, "NGN", json.RawMessage(`{}`))
	store.SeedOrder(order)
	store.SeedPayment(payment)

	refund, err := domain.NewRefund(payment, 0, 2000, "webhook test")
	require.NoError(t, err)
	require.NoError(t, refund.BeginProcessing())
	providerID := "991"
	refund.TransactionID = &providerID
	store.SeedRefund(refund)

	body := []byte(`{
		"event": "refund.failed",
		"data": {"id": 991, "status": "failed", "amount": 2000}
	}`)

	err = svc.HandleCallback(ctx, testWebhookSecret, body)

	require.NoError(t, err)
	got, err := store.Refunds().FindByReference(ctx, refund.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundFailed, got.Status)
}

func TestHandleCallback_UnknownEventIgnored(t *testing.T) {
	store, svc := newWebhookFixture()

	err := svc.HandleCallback(context.Background(), testWebhookSecret, []byte(`{"event":"subscription.cancelled"}`))

	require.NoError(t, err)
	assert.Equal(t, 0, store.OrderCount())
	assert.Empty(t, store.Reviews())
}

func TestHandleCallback_MalformedBody(t *testing.T) {
	_, svc := newWebhookFixture()

	err := svc.HandleCallback(context.Background(), testWebhookSecret, []byte(`not json`))

	require.Error(t, err)
	assert.Equal(t, application.ErrCodeEvidenceIncomplete, application.ToErrorCode(err))
}
