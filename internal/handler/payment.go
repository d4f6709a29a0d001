package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/pkg/response"
)

type PaymentHandler struct {
	payments  PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{
		payments:  payments,
		validator: newValidator(),
	}
}

// RecordPayment handles POST /installments/{installmentId}/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordPaymentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	req.InstallmentID = mux.Vars(r)["installmentId"]

	result, err := h.payments.RecordPayment(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

// ResetPayment handles POST /installments/{installmentId}/reset. The body
// is optional and only carries expected_version.
func (h *PaymentHandler) ResetPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPaymentRequest
	if !decodeOptional(w, r, h.validator, &req) {
		return
	}
	req.InstallmentID = mux.Vars(r)["installmentId"]

	result, err := h.payments.ResetPayment(r.Context(), &req, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

// History handles GET /installments/{installmentId}/events
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.payments.History(r.Context(), mux.Vars(r)["installmentId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, events)
}
