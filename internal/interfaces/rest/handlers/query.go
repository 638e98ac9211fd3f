package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest"
)

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.queryService.GetOrderByNumber(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToOrderView(order))
}

func (h *Handlers) ListReviewQueue(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.queryService.ListReviewQueue(r.Context(), limit, offset)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	views := []rest.ReviewItemView{}
	for _, item := range items {
		views = append(views, rest.ToReviewItemView(item))
	}

	rest.WriteJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetDeliveryCharge(w http.ResponseWriter, r *http.Request) {
	charge, err := h.settings.DeliveryCharge(r.Context())
	if err != nil {
		rest.WriteError(w, application.NewInternalError(err), h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]int64{"delivery_charge": charge})
}

type setDeliveryChargeRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handlers) SetDeliveryCharge(w http.ResponseWriter, r *http.Request) {
	var req setDeliveryChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}
	if req.Amount < 0 {
		rest.WriteError(w, application.NewInvalidInputError("delivery charge cannot be negative"), h.logger)
		return
	}

	if err := h.settings.SetDeliveryCharge(r.Context(), req.Amount); err != nil {
		rest.WriteError(w, application.NewInternalError(err), h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, map[string]int64{"delivery_charge": req.Amount})
}
