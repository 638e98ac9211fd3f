// Package handlers wires the HTTP endpoints to the application services.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
)

type Handlers struct {
	checkoutService *services.CheckoutService
	refundService   *services.RefundService
	webhookService  *services.WebhookService
	queryService    *services.QueryService
	settings        application.SettingsStore
	logger          *slog.Logger
}

func NewHandlers(
	checkoutService *services.CheckoutService,
	refundService *services.RefundService,
	webhookService *services.WebhookService,
	queryService *services.QueryService,
	settings application.SettingsStore,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		checkoutService: checkoutService,
		refundService:   refundService,
		webhookService:  webhookService,
		queryService:    queryService,
		settings:        settings,
		logger:          logger,
	}
}

// Routes registers every endpoint on the mux.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/checkout/intents", h.CreateIntent)
	mux.HandleFunc("GET /api/v1/checkout/intents/{reference}", h.GetIntent)
	mux.HandleFunc("POST /api/v1/checkout/charge", h.Charge)
	mux.HandleFunc("POST /api/v1/checkout/challenge", h.SubmitChallenge)
	mux.HandleFunc("POST /api/v1/checkout/validate-otp", h.ValidateOTP)
	mux.HandleFunc("POST /api/v1/checkout/verify/{reference}", h.Verify)

	mux.HandleFunc("POST /api/v1/webhooks/payment", h.PaymentWebhook)

	mux.HandleFunc("GET /api/v1/orders/{orderNumber}", h.GetOrder)
	mux.HandleFunc("GET /api/v1/orders/{orderNumber}/refunds", h.ListRefunds)
	mux.HandleFunc("POST /api/v1/orders/{orderNumber}/refunds", h.RequestRefund)

	mux.HandleFunc("POST /api/v1/refunds/{reference}/execute", h.ExecuteRefund)
	mux.HandleFunc("POST /api/v1/refunds/{reference}/cancel", h.CancelRefund)
	mux.HandleFunc("POST /api/v1/refunds/{reference}/poll", h.PollRefund)

	mux.HandleFunc("GET /api/v1/admin/review-queue", h.ListReviewQueue)
	mux.HandleFunc("GET /api/v1/admin/settings/delivery-charge", h.GetDeliveryCharge)
	mux.HandleFunc("PUT /api/v1/admin/settings/delivery-charge", h.SetDeliveryCharge)

	mux.HandleFunc("GET /health", h.Health)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
