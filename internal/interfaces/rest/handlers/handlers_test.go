package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services/testhelpers"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest/handlers"
)

const webhookSecret = "whsec-test"

type apiFixture struct {
	store   *testhelpers.MemoryStore
	gateway *testhelpers.MockGatewayClient
	mux     *http.ServeMux
}

func newAPIFixture() *apiFixture {
	store := testhelpers.NewMemoryStore()
	gatewayClient := &testhelpers.MockGatewayClient{}
	catalog := &testhelpers.MockCatalogClient{
		Products: map[string]*application.Product{
			"prod-1": {ID: "prod-1", Name: "Beef Suya", Price: 1500, InStock: true},
			"prod-2": {ID: "prod-2", Name: "Chicken Kabab", Price: 2500, InStock: true},
		},
	}
	identity := &testhelpers.MockIdentityClient{
		UsersByEmail: map[string]*application.User{
			"ada@example.com": {ID: "user-1", Email: "ada@example.com", Name: "Ada"},
		},
	}
	cart := &testhelpers.MockCartClient{}
	settings := &testhelpers.MockSettings{Charge: 500}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reconciler := services.NewReconcileService(store, identity, cart, logger)
	checkout := services.NewCheckoutService(store, gatewayClient, catalog, settings, reconciler, 2*time.Hour, logger)
	refunds := services.NewRefundService(store, gatewayClient, logger)
	webhooks := services.NewWebhookService(webhookSecret, reconciler, refunds, logger)
	queries := services.NewQueryService(store)

	mux := http.NewServeMux()
	handlers.NewHandlers(checkout, refunds, webhooks, queries, settings, logger).Routes(mux)

	return &apiFixture{store: store, gateway: gatewayClient, mux: mux}
}

func (f *apiFixture) do(t *testing.T, method, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestCreateIntentEndpoint(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/intents", `{
		"owner_id": "user-1",
		"customer_email": "ada@example.com",
		"delivery": {"method": "delivery", "address": "12 Broad St", "phone": "0800"},
		"items": [
			{"product_id": "prod-1", "quantity": 2, "addons": [{"addon_id": "addon-1", "name": "Extra Pepper", "quantity": 1, "unit_price": 200}]},
			{"product_id": "prod-2", "quantity": 1}
		]
	}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(6200), data["total_amount"])
	assert.Equal(t, "pending_payment", data["status"])
	assert.NotEmpty(t, data["reference"])
}

func TestCreateIntentEndpoint_MalformedBody(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/intents", `{not json`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, application.ErrCodeInvalidInput, errObj["code"])
}

func TestGetIntentEndpoint_NotFound(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/checkout/intents/SKB-MISSING", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, application.ErrCodeNotFound, errObj["code"])
}

func TestChargeEndpoint_Declined(t *testing.T) {
	f := newAPIFixture()
	f.store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	f.gateway.ChargeFn = func(ctx context.Context, req application.CardCharge) (*application.ChargeResult, error) {
		return &application.ChargeResult{Outcome: application.ChargeFailed, Message: "Insufficient Funds"}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/charge", `{
		"reference": "SKB-REF-1",
		"card_number": "5531886652142950",
		"cvv": "564",
		"expiry_month": "09",
		"expiry_year": "32"
	}`, nil)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	envelope := decodeEnvelope(t, rec)
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, application.ErrCodeDeclined, errObj["code"])
}

func TestWebhookEndpoint(t *testing.T) {
	t.Run("bad signature rejected", func(t *testing.T) {
		f := newAPIFixture()

		rec := f.do(t, http.MethodPost, "/api/v1/webhooks/payment",
			`{"event":"charge.completed"}`, map[string]string{"verif-hash": "forged"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid charge event materializes and answers 200", func(t *testing.T) {
		f := newAPIFixture()
		f.store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

		rec := f.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{
			"event": "charge.completed",
			"data": {"id": 100, "tx_ref": "SKB-REF-1", "status": "successful", "amount": 6200, "currency": "NGN"}
		}`, map[string]string{"verif-hash": webhookSecret})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, f.store.OrderCount())
	})

	t.Run("processing failure still answers 200", func(t *testing.T) {
		f := newAPIFixture()

		// No intent and no resolvable owner: the event lands in the review
		// queue and the provider must not retry it.
		rec := f.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{
			"event": "charge.completed",
			"data": {"id": 101, "tx_ref": "SKB-ORPHAN", "status": "successful", "amount": 999, "currency": "NGN"}
		}`, map[string]string{"verif-hash": webhookSecret})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, f.store.Reviews())
	})
}

func TestRefundEndpoints(t *testing.T) {
	f := newAPIFixture()

	order := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	payment := domain.NewSuccessfulPayment(order.ID, order.PaymentReference, "tx-100", 6200, "NGN", json.RawMessage(`{}`))
	f.store.SeedOrder(order)
	f.store.SeedPayment(payment)

	rec := f.do(t, http.MethodPost, "/api/v1/orders/"+order.OrderNumber+"/refunds",
		`{"amount": 2000, "reason": "cold food"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	reference := data["reference"].(string)
	assert.Equal(t, "pending", data["status"])

	f.gateway.RefundFn = func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
		return &application.RefundCallResult{Completed: true, ProviderRefundID: "rf-1", Amount: amount}, nil
	}

	rec = f.do(t, http.MethodPost, "/api/v1/refunds/"+reference+"/execute", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "successful", data["status"])

	rec = f.do(t, http.MethodGet, "/api/v1/orders/"+order.OrderNumber+"/refunds", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(4200), data["refundable_amount"])
	assert.Len(t, data["refunds"].([]any), 1)
}

func TestRefundEndpoint_ExceedsRefundable(t *testing.T) {
	f := newAPIFixture()

	order := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	payment := domain.NewSuccessfulPayment(order.ID, order.PaymentReference, "tx-100", 6200, "NGN", json.RawMessage(`{}`))
	f.store.SeedOrder(order)
	f.store.SeedPayment(payment)

	rec := f.do(t, http.MethodPost, "/api/v1/orders/"+order.OrderNumber+"/refunds",
		`{"amount": 9000, "reason": "too much"}`, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errObj := decodeEnvelope(t, rec)["error"].(map[string]any)
	assert.Equal(t, application.ErrCodeExceedsRefundable, errObj["code"])
}

func TestAdminEndpoints(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/admin/settings/delivery-charge", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(500), data["delivery_charge"])

	rec = f.do(t, http.MethodPut, "/api/v1/admin/settings/delivery-charge", `{"amount": 750}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/admin/settings/delivery-charge", "", nil)
	data = decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(750), data["delivery_charge"])

	rec = f.do(t, http.MethodPut, "/api/v1/admin/settings/delivery-charge", `{"amount": -1}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/admin/review-queue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []any{}, envelope["data"])
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture()

	rec := f.do(t, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
