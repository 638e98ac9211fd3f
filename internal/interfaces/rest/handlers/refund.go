package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/interfaces/rest"
)

type requestRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (h *Handlers) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var req requestRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	refund, err := h.refundService.Request(r.Context(), services.RequestRefundCommand{
		OrderNumber: r.PathValue("orderNumber"),
		Amount:      req.Amount,
		Reason:      req.Reason,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.ToRefundView(refund))
}

func (h *Handlers) ExecuteRefund(w http.ResponseWriter, r *http.Request) {
	refund, err := h.refundService.Execute(r.Context(), r.PathValue("reference"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToRefundView(refund))
}

type cancelRefundRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) CancelRefund(w http.ResponseWriter, r *http.Request) {
	var req cancelRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError("malformed request body"), h.logger)
		return
	}

	refund, err := h.refundService.Cancel(r.Context(), r.PathValue("reference"), req.Reason)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToRefundView(refund))
}

func (h *Handlers) PollRefund(w http.ResponseWriter, r *http.Request) {
	refund, err := h.refundService.Poll(r.Context(), r.PathValue("reference"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToRefundView(refund))
}

type refundListResponse struct {
	Refunds    []rest.RefundView `json:"refunds"`
	Refundable int64             `json:"refundable_amount"`
}

func (h *Handlers) ListRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, refundable, err := h.queryService.GetRefunds(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	resp := refundListResponse{Refundable: refundable, Refunds: []rest.RefundView{}}
	for _, refund := range refunds {
		resp.Refunds = append(resp.Refunds, rest.ToRefundView(refund))
	}

	rest.WriteJSON(w, http.StatusOK, resp)
}
